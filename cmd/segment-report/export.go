package main

import (
	"fmt"

	"go-segment-report/internal/model"
	"go-segment-report/internal/pipeline"
	"go-segment-report/internal/store"
	"go-segment-report/pkg/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		format string
		income string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the report as CSV, JSON or XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			format, err := pipeline.ParseFormat(format)
			if err != nil {
				return err
			}
			session, err := loadSession(ctx)
			if err != nil {
				return err
			}
			if income == "" {
				income = session.DefaultIncomeCategory()
			}
			report, err := session.Report(ctx, income)
			if err != nil {
				return err
			}

			runID := uuid.New().String()
			em := pipeline.NewExportManager(runID, utils.NewOutputManager(cfg.Output.Dir))
			result, err := em.ExportReport(ctx, report, format)
			recordRun(cmd, model.Run{
				ID: runID, SessionID: session.ID, Kind: "report", Format: format, IncomeCategory: income,
			}, result, err)
			if err != nil {
				return err
			}
			color.Green("✅ %d values exported to %s", result.RecordCount, result.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", pipeline.FormatCSV, "csv, json or xlsx")
	cmd.Flags().StringVar(&income, "renda", "", "income category (default: first category of the segment)")
	return cmd
}

func exportDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-db",
		Short: "Replace the risk-band and credit-operation tables in SQLite",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cfg.Store.Path == "" {
				return fmt.Errorf("store.path is not configured")
			}
			session, err := loadSession(ctx)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			runID := uuid.New().String()
			run := model.Run{ID: runID, SessionID: session.ID, Kind: "database", Format: "sqlite"}
			if err := st.SaveRun(ctx, run); err != nil {
				return err
			}
			em := pipeline.NewExportManager(runID, utils.NewOutputManager(cfg.Output.Dir))
			result, exportErr := em.ExportSources(ctx, st, session.Spec, session.Sources)
			status := "completed"
			if exportErr != nil {
				status = "failed"
				_ = st.SaveRunError(ctx, runID, exportErr)
			}
			if err := st.UpdateRunStatus(ctx, runID, status, result.Path, result.RecordCount); err != nil {
				return err
			}
			if exportErr != nil {
				return exportErr
			}
			color.Green("✅ %d rows written to %s (%v)", result.RecordCount, result.Path, result.Tables)
			return nil
		},
	}
}

// recordRun stores a report export in the run history when a store is
// configured. History failures are reported but never fail the export.
func recordRun(cmd *cobra.Command, run model.Run, result model.ExportResult, runErr error) {
	if cfg.Store.Path == "" {
		return
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		color.Yellow("⚠️ run history unavailable: %v", err)
		return
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := st.SaveRun(ctx, run); err != nil {
		color.Yellow("⚠️ failed to record run: %v", err)
		return
	}
	status := "completed"
	if runErr != nil {
		status = "failed"
		_ = st.SaveRunError(ctx, run.ID, runErr)
	}
	_ = st.UpdateRunStatus(ctx, run.ID, status, result.Path, result.RecordCount)
}
