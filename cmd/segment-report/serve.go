package main

import (
	"log/slog"

	"go-segment-report/internal/api"
	"go-segment-report/internal/api/handler"
	"go-segment-report/internal/store"
	"go-segment-report/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			session, err := loadSession(ctx)
			if err != nil {
				return err
			}

			var st *store.Store
			if cfg.Store.Path != "" {
				st, err = store.Open(cfg.Store.Path)
				if err != nil {
					return err
				}
				defer st.Close()
			}

			output := utils.NewOutputManager(cfg.Output.Dir)
			if err := output.EnsureOutputDirExists(); err != nil {
				return err
			}

			h := handler.NewReportHandler(session, loadSession, st, output)
			r := api.NewRouter(h)
			slog.Info("📊 Dashboard ready", "addr", cfg.Server.Addr, "segment_rows", session.Segment.Rows())
			return r.Start(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
