package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go-segment-report/internal/model"
	"go-segment-report/internal/store"
	"go-segment-report/pkg/utils"

	"github.com/xuri/excelize/v2"
)

// Export formats for derived tables.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ParseFormat normalizes an export format name.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", model.ErrUnknownFormat, format)
	}
}

// ExportManager handles export operations of one run. Files land in the
// run's own output directory.
type ExportManager struct {
	RunID  string
	Output *utils.OutputManager
}

// NewExportManager creates an export manager for a run.
func NewExportManager(runID string, output *utils.OutputManager) *ExportManager {
	return &ExportManager{RunID: runID, Output: output}
}

func (em *ExportManager) record(result model.ExportResult, err error) (model.ExportResult, error) {
	result.Success = err == nil
	result.Timestamp = time.Now()
	if err != nil {
		result.Error = err.Error()
		slog.Error("❌ Export failed", "run_id", em.RunID, "type", result.Type, "error", err)
	} else {
		slog.Info("✅ Export successful", "run_id", em.RunID, "type", result.Type,
			"records", result.RecordCount, "path", result.Path)
	}
	return result, err
}

// ------------------- Derived Tables -------------------

// ExportReport writes every section of the report in the given format.
func (em *ExportManager) ExportReport(ctx context.Context, report *model.Report, format string) (model.ExportResult, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return em.record(model.ExportResult{Type: format}, err)
	}
	result := model.ExportResult{Type: format}
	if err := ctx.Err(); err != nil {
		return em.record(result, err)
	}

	fileName := fmt.Sprintf("report_%s.%s", fileSlug(report.IncomeCategory), format)
	path, err := em.Output.GetOutputFilePath(em.RunID, fileName)
	if err != nil {
		return em.record(result, err)
	}
	result.Path = path
	for _, sec := range report.Sections {
		result.Tables = append(result.Tables, sec.Name)
	}

	slog.Info("💾 Starting report export", "run_id", em.RunID, "format", format, "sections", len(report.Sections))
	switch format {
	case FormatCSV:
		result.RecordCount, err = exportCSV(path, report)
	case FormatJSON:
		result.RecordCount, err = exportJSON(path, em.RunID, report)
	case FormatXLSX:
		result.RecordCount, err = exportXLSX(path, report)
	}
	return em.record(result, err)
}

// exportCSV writes the report in long form: one line per section cell.
func exportCSV(path string, report *model.Report) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"section", "income_category", "key", "measure", "value"}); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	recordCount := 0
	for _, sec := range report.Sections {
		header, rows := SectionGrid(&sec)
		for _, row := range rows {
			key := fmt.Sprint(row[0])
			for i := 1; i < len(row); i++ {
				line := []string{sec.Name, sec.IncomeCategory, key, header[i], csvValue(row[i])}
				if err := writer.Write(line); err != nil {
					return recordCount, fmt.Errorf("failed to write row: %w", err)
				}
				recordCount++
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return recordCount, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return recordCount, nil
}

func csvValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		if model.IsUndefined(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// exportJSON writes the report wrapped with export metadata.
func exportJSON(path, runID string, report *model.Report) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":          runID,
			"session_id":      report.SessionID,
			"exported_at":     time.Now().UTC(),
			"income_category": report.IncomeCategory,
			"section_count":   len(report.Sections),
			"export_type":     "segment_report",
		},
		"data": report,
	}
	if err := encoder.Encode(exportData); err != nil {
		return 0, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return len(report.Sections), nil
}

// exportXLSX writes one worksheet per section.
func exportXLSX(path string, report *model.Report) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	recordCount := 0
	for i, sec := range report.Sections {
		sheet := sheetName(sec.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return 0, fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return 0, fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}

		header, rows := SectionGrid(&sec)
		headerRow := make([]interface{}, len(header))
		for j, h := range header {
			headerRow[j] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
			return recordCount, fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
		for r, row := range rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				if x, ok := v.(float64); ok && model.IsUndefined(x) {
					v = nil
				}
				cells[j] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return recordCount, err
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return recordCount, fmt.Errorf("failed to write row of %s: %w", sheet, err)
			}
			recordCount++
		}
	}
	if err := f.SaveAs(path); err != nil {
		return recordCount, fmt.Errorf("failed to save workbook: %w", err)
	}
	return recordCount, nil
}

// SectionGrid flattens a section into a header and rows. The first cell of
// each row is its key; numeric cells are float64 and may be undefined.
func SectionGrid(sec *model.Section) ([]string, [][]interface{}) {
	var (
		header []string
		rows   [][]interface{}
	)
	switch {
	case sec.Grouped != nil:
		header = append([]string{sec.Grouped.GroupKey}, sec.Grouped.Columns...)
		for _, r := range sec.Grouped.Rows {
			row := make([]interface{}, 0, len(r.Values)+1)
			row = append(row, r.Key)
			for _, v := range r.Values {
				row = append(row, v)
			}
			rows = append(rows, row)
		}
	case sec.Proportions != nil:
		header = []string{"category", "count", "share"}
		for _, p := range sec.Proportions {
			rows = append(rows, []interface{}{p.Category, float64(p.Count), p.Share})
		}
	case sec.Recommendations != nil:
		header = []string{"item", "recommendation"}
		for i, rec := range sec.Recommendations {
			rows = append(rows, []interface{}{strconv.Itoa(i + 1), rec})
		}
	default:
		header = []string{"metric", "value"}
		for _, m := range sec.Metrics {
			rows = append(rows, []interface{}{m.Name, m.Value})
		}
	}
	return header, rows
}

func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

// fileSlug turns an income category into a file-name fragment.
func fileSlug(s string) string {
	if strings.TrimSpace(s) == "" {
		return "all"
	}
	slug := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, s)
	return strings.Trim(slug, "_")
}

// ------------------- Source Tables -------------------

// ExportSources copies the operation and risk-band tables verbatim into the
// store, replacing what a previous export left there.
func (em *ExportManager) ExportSources(ctx context.Context, st *store.Store, spec model.ReportSpec, sources *LoadedSources) (model.ExportResult, error) {
	result := model.ExportResult{Type: "database", Path: st.Path()}

	targets := []struct {
		source model.Source
		table  *model.Table
	}{
		{spec.RiskBands, sources.RiskBands},
		{spec.Operations, sources.Operations},
	}
	for _, target := range targets {
		if target.table == nil || target.source.Table == "" {
			continue
		}
		n, err := st.ReplaceTable(ctx, target.source.Table, target.table)
		if err != nil {
			return em.record(result, err)
		}
		slog.Info("🗄️ Table replaced", "table", target.source.Table, "rows", n)
		result.Tables = append(result.Tables, target.source.Table)
		result.RecordCount += n
	}
	if len(result.Tables) == 0 {
		return em.record(result, fmt.Errorf("no source table configured for export"))
	}
	return em.record(result, nil)
}
