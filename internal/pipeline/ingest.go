package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"go-segment-report/internal/model"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

// LoadedSources holds the three tables of a session.
type LoadedSources struct {
	Customers  *model.Table
	Operations *model.Table
	RiskBands  *model.Table
}

// ------------------- Ingestion -------------------

// IngestSource loads a single source (CSV/XLSX) into a tagged table. Remote
// sources are fetched with DefaultFetchRetry.
func IngestSource(ctx context.Context, source model.Source, schema model.Schema) (*model.Table, error) {
	return ingestSource(ctx, source, schema, DefaultFetchRetry)
}

func ingestSource(ctx context.Context, source model.Source, schema model.Schema, retry RetryConfig) (*model.Table, error) {
	slog.Info("➡️ Starting ingestion", "source", source.Name, "path", source.Path, "type", source.Type)

	var (
		t   *model.Table
		err error
	)
	switch strings.ToLower(source.Type) {
	case "csv":
		t, err = ingestCSV(ctx, source, schema, retry)
	case "xlsx", "excel":
		t, err = ingestXLSX(ctx, source, schema, retry)
	default:
		err = fmt.Errorf("%w: unknown source type %q for %s", model.ErrMalformedSource, source.Type, source.Name)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("✅ Finished ingestion", "source", source.Name, "rows", t.Rows(), "columns", len(t.ColumnNames()))
	return t, nil
}

// StartIngestion loads all sources in parallel. The first failure cancels the
// remaining loads and is returned.
func StartIngestion(ctx context.Context, spec model.ReportSpec, tracker *SessionTracker, retry RetryConfig) (*LoadedSources, error) {
	var out LoadedSources
	g, gctx := errgroup.WithContext(ctx)

	load := func(src model.Source, schema model.Schema, dst **model.Table) {
		g.Go(func() error {
			start := time.Now()
			t, err := ingestSource(gctx, src, schema, retry)
			if tracker != nil {
				tracker.RecordSource(src, t, time.Since(start), err)
			}
			if err != nil {
				return fmt.Errorf("load %s: %w", src.Name, err)
			}
			*dst = t
			return nil
		})
	}

	load(spec.Customers, spec.Schema, &out.Customers)
	if spec.Operations.Path != "" {
		load(spec.Operations, model.Schema{}, &out.Operations)
	}
	if spec.RiskBands.Path != "" {
		load(spec.RiskBands, model.Schema{}, &out.RiskBands)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// ------------------- CSV Ingestion -------------------
func ingestCSV(ctx context.Context, source model.Source, schema model.Schema, retry RetryConfig) (*model.Table, error) {
	reader, closeFn, err := openSource(ctx, source.Path, retry)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	utf8Source := true
	switch strings.ToLower(strings.ReplaceAll(source.Encoding, "_", "-")) {
	case "", "utf-8", "utf8":
	case "latin1", "latin-1", "iso-8859-1":
		reader = charmap.ISO8859_1.NewDecoder().Reader(reader)
		utf8Source = false
	case "windows-1252", "cp1252":
		reader = charmap.Windows1252.NewDecoder().Reader(reader)
		utf8Source = false
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %q for %s", model.ErrMalformedSource, source.Encoding, source.Name)
	}

	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	if source.Delimiter != "" {
		delim, _ := utf8.DecodeRuneInString(source.Delimiter)
		csvReader.Comma = delim
	}

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header of %s: %v", model.ErrMalformedSource, source.Path, err)
	}
	headers = cleanHeaders(headers)
	if len(headers) == 1 && strings.ContainsAny(headers[0], ",;\t|") {
		return nil, fmt.Errorf("%w: header of %s does not split on delimiter %q", model.ErrMalformedSource, source.Path, string(csvReader.Comma))
	}

	cells := make([][]string, len(headers))
	recordCount := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: CSV read error in %s: %v", model.ErrMalformedSource, source.Path, err)
		}
		for i := range headers {
			if utf8Source && !utf8.ValidString(record[i]) {
				return nil, fmt.Errorf("%w: invalid UTF-8 in %s line %d", model.ErrMalformedSource, source.Path, recordCount+2)
			}
			cells[i] = append(cells[i], record[i])
		}
		recordCount++
	}
	slog.Debug("📄 CSV ingestion done", "records", recordCount, "path", source.Path)

	return buildTable(source.Name, headers, cells, schema)
}

// ------------------- XLSX Ingestion -------------------
func ingestXLSX(ctx context.Context, source model.Source, schema model.Schema, retry RetryConfig) (*model.Table, error) {
	reader, closeFn, err := openSource(ctx, source.Path, retry)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook %s: %v", model.ErrMalformedSource, source.Path, err)
	}
	defer f.Close()

	sheet := source.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q in %s: %v", model.ErrMalformedSource, sheet, source.Path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q in %s is empty", model.ErrMalformedSource, sheet, source.Path)
	}

	headers := cleanHeaders(rows[0])
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: sheet %q in %s has no header row", model.ErrMalformedSource, sheet, source.Path)
	}
	cells := make([][]string, len(headers))
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlankRow(row) {
			continue
		}
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = append(cells[i], cell)
		}
	}
	slog.Debug("📊 XLSX ingestion done", "sheet", sheet, "records", len(cells[0]), "path", source.Path)

	return buildTable(source.Name, headers, cells, schema)
}

// openSource opens a local file or fetches a remote one.
func openSource(ctx context.Context, pathOrURL string, retry RetryConfig) (io.Reader, func(), error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		resp, err := fetchRemote(ctx, pathOrURL, retry)
		if err != nil {
			return nil, nil, err
		}
		return resp.Body, func() { resp.Body.Close() }, nil
	}

	file, err := os.Open(pathOrURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

// buildTable tags each column from the schema, inferring undeclared ones.
func buildTable(name string, headers []string, cells [][]string, schema model.Schema) (*model.Table, error) {
	kinds := make(map[string]model.Kind)
	for _, c := range schema.Categorical {
		kinds[c] = model.KindCategorical
	}
	for _, c := range schema.Numeric {
		kinds[c] = model.KindNumeric
	}
	for _, c := range schema.Flags {
		kinds[c] = model.KindFlag
	}

	cols := make([]model.Column, len(headers))
	for i, h := range headers {
		colCells := cells[i]
		if colCells == nil {
			colCells = []string{}
		}
		kind, declared := kinds[h]
		if !declared {
			kind = InferKind(colCells)
		}
		cols[i] = BuildColumn(h, kind, colCells)
	}
	return model.NewTable(name, cols...)
}

// cleanHeaders trims whitespace, quotes and a leading byte order mark.
func cleanHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		h = strings.ReplaceAll(h, `"`, "")
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
