package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-segment-report/internal/config"
	"go-segment-report/internal/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "segment-report",
		Short: "📊 Retiree segment report",
		Long: `segment-report loads the credit-operation, risk-band and customer files,
filters the customers to the retiree segment and reports usage rates,
regional counts and balances by income category.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./segment-report.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("customers", "", "customer spreadsheet path or URL")
	rootCmd.PersistentFlags().String("operations", "", "credit operations CSV path or URL")
	rootCmd.PersistentFlags().String("risk-bands", "", "risk bands CSV path or URL")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("report.customers.path", rootCmd.PersistentFlags().Lookup("customers"))
	_ = viper.BindPFlag("report.operations.path", rootCmd.PersistentFlags().Lookup("operations"))
	_ = viper.BindPFlag("report.risk_bands.path", rootCmd.PersistentFlags().Lookup("risk-bands"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(exportDBCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	loaded, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(loaded.Logging, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)
	cfg = loaded
	return nil
}

// loadSession builds a report session from the configured sources.
func loadSession(ctx context.Context) (*pipeline.Session, error) {
	return pipeline.NewSession(ctx, cfg.Report,
		pipeline.WithCacheSize(cfg.Cache.Size),
		pipeline.WithFetchRetry(cfg.Fetch.RetryConfig()))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "segment-report %s\n", version)
		},
	}
}
