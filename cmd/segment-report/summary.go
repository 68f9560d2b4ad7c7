package main

import (
	"fmt"
	"io"

	"go-segment-report/internal/dashboard"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	var income string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print every report section as terminal tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := loadSession(cmd.Context())
			if err != nil {
				return err
			}
			if income == "" {
				income = session.DefaultIncomeCategory()
			}
			report, err := session.Report(cmd.Context(), income)
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), dashboard.BuildView(report))
			return nil
		},
	}
	cmd.Flags().StringVar(&income, "renda", "", "income category (default: first category of the segment)")
	return cmd
}

func printView(w io.Writer, v dashboard.View) {
	title := color.New(color.FgCyan, color.Bold)
	heading := color.New(color.FgYellow)

	title.Fprintf(w, "\n=== %s (%d clientes) ===\n", v.SegmentValue, v.SegmentRows)
	fmt.Fprintf(w, "Categoria de renda: %s\n", v.IncomeCategory)

	for _, t := range v.Tables {
		heading.Fprintf(w, "\n%s\n", t.Title)
		if len(t.Recommendations) > 0 {
			for _, rec := range t.Recommendations {
				fmt.Fprintf(w, "- %s\n", rec)
			}
			continue
		}
		table := tablewriter.NewWriter(w)
		table.SetHeader(t.Header)
		table.SetAutoFormatHeaders(false)
		for _, row := range t.Rows {
			table.Append(row)
		}
		table.Render()
	}
}
