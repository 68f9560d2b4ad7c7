// Package dashboard renders the report as an HTML page and a usage chart.
package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"go-segment-report/internal/model"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// RenderPage writes the dashboard page for a report.
func RenderPage(w io.Writer, report *model.Report) error {
	if err := pageTemplate.Execute(w, BuildView(report)); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}
