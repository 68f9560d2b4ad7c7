package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go-segment-report/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestIngestCSV(t *testing.T) {
	path := writeFile(t, "ops.csv", []byte("\ufeffID;VALOR;DESCRICAO\n1;1.234,50;Crédito\n2;;Débito\n"))

	tbl, err := IngestSource(context.Background(), model.Source{
		Name: "operations", Type: "csv", Path: path, Delimiter: ";",
	}, model.Schema{})
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Rows())
	assert.Equal(t, []string{"ID", "VALOR", "DESCRICAO"}, tbl.ColumnNames())

	valor, err := tbl.Column("VALOR")
	require.NoError(t, err)
	assert.Equal(t, model.KindNumeric, valor.Kind)
	assert.InDelta(t, 1234.5, valor.Values[0], 1e-9)
	assert.True(t, model.IsUndefined(valor.Values[1]))

	desc, err := tbl.Column("DESCRICAO")
	require.NoError(t, err)
	assert.Equal(t, model.KindCategorical, desc.Kind)
	assert.Equal(t, "Crédito", desc.Cells[0])
}

func TestIngestCSVLatin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("FAIXA;DESCRICAO\nA;Risco mínimo\nB;Médio\n")
	require.NoError(t, err)
	path := writeFile(t, "faixas.csv", []byte(raw))

	src := model.Source{Name: "risk_bands", Type: "csv", Path: path, Delimiter: ";", Encoding: "latin1"}
	tbl, err := IngestSource(context.Background(), src, model.Schema{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FAIXA": "A", "DESCRICAO": "Risco mínimo"}, tbl.Row(0))

	src.Encoding = "utf-8"
	_, err = IngestSource(context.Background(), src, model.Schema{})
	assert.ErrorIs(t, err, model.ErrMalformedSource)
}

func TestIngestCSVMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
		src  model.Source
	}{
		{
			name: "wrong delimiter",
			data: "A;B;C\n1;2;3\n",
			src:  model.Source{Delimiter: ","},
		},
		{
			name: "ragged rows",
			data: "A;B\n1;2;3\n",
			src:  model.Source{Delimiter: ";"},
		},
		{
			name: "empty file",
			data: "",
			src:  model.Source{Delimiter: ";"},
		},
		{
			name: "unsupported encoding",
			data: "A;B\n1;2\n",
			src:  model.Source{Delimiter: ";", Encoding: "ebcdic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.src
			src.Name = "broken"
			src.Type = "csv"
			src.Path = writeFile(t, "broken.csv", []byte(tt.data))
			_, err := IngestSource(context.Background(), src, model.Schema{})
			assert.ErrorIs(t, err, model.ErrMalformedSource)
		})
	}
}

func TestIngestUnknownType(t *testing.T) {
	_, err := IngestSource(context.Background(), model.Source{Name: "x", Type: "parquet"}, model.Schema{})
	assert.ErrorIs(t, err, model.ErrMalformedSource)
}

func TestIngestMissingFile(t *testing.T) {
	_, err := IngestSource(context.Background(), model.Source{
		Name: "x", Type: "csv", Path: filepath.Join(t.TempDir(), "absent.csv"),
	}, model.Schema{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "dados.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestIngestXLSX(t *testing.T) {
	path := writeWorkbook(t, "DADOS", [][]interface{}{
		{"DESC_CBO", "PROD_POUPANCA", "SCORE_PRINCIPALIDADE", "OBS"},
		{retiree, "S", 3, "x"},
		{nil, nil, nil, nil},
		{"Outro", "SN", 5.5},
	})

	schema := model.Schema{
		Flags:       []string{"PROD_POUPANCA"},
		Numeric:     []string{"SCORE_PRINCIPALIDADE"},
		Categorical: []string{"DESC_CBO"},
	}
	tbl, err := IngestSource(context.Background(), model.Source{
		Name: "customers", Type: "xlsx", Path: path, Sheet: "DADOS",
	}, schema)
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Rows(), "blank rows are skipped")

	flag, err := tbl.Column("PROD_POUPANCA")
	require.NoError(t, err)
	assert.Equal(t, model.KindFlag, flag.Kind)
	assert.Equal(t, []string{"S", "SN"}, flag.Cells)

	score, err := tbl.Column("SCORE_PRINCIPALIDADE")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5.5}, score.Values)

	obs, err := tbl.Column("OBS")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", ""}, obs.Cells, "short rows are padded")
}

func TestIngestXLSXMissingSheet(t *testing.T) {
	path := writeWorkbook(t, "Planilha1", [][]interface{}{{"A"}, {"1"}})
	_, err := IngestSource(context.Background(), model.Source{
		Name: "customers", Type: "xlsx", Path: path, Sheet: "DADOS",
	}, model.Schema{})
	assert.ErrorIs(t, err, model.ErrMalformedSource)
}

func TestIngestXLSXDefaultsToFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Planilha1", [][]interface{}{{"A"}, {"1"}})
	tbl, err := IngestSource(context.Background(), model.Source{Name: "c", Type: "excel", Path: path}, model.Schema{})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Rows())
}

func TestStartIngestion(t *testing.T) {
	customers := writeWorkbook(t, "DADOS", [][]interface{}{{"DESC_CBO"}, {retiree}})
	ops := writeFile(t, "ops.csv", []byte("ID;VALOR\n1;10\n2;20\n"))

	spec := model.DefaultReportSpec()
	spec.Customers.Path = customers
	spec.Operations.Path = ops
	spec.RiskBands.Path = ""

	tracker := NewSessionTracker("test")
	sources, err := StartIngestion(context.Background(), spec, tracker, DefaultFetchRetry)
	require.NoError(t, err)
	assert.Equal(t, 1, sources.Customers.Rows())
	assert.Equal(t, 2, sources.Operations.Rows())
	assert.Nil(t, sources.RiskBands)

	status := tracker.Status()
	assert.Equal(t, 2, status.SourceMetrics["operations"].Rows)
	assert.Empty(t, status.SourceMetrics["customers"].LastError)
}

func TestStartIngestionFailsOnAnySource(t *testing.T) {
	customers := writeWorkbook(t, "DADOS", [][]interface{}{{"DESC_CBO"}, {retiree}})

	spec := model.DefaultReportSpec()
	spec.Customers.Path = customers
	spec.Operations.Path = filepath.Join(t.TempDir(), "absent.csv")
	spec.RiskBands.Path = ""

	tracker := NewSessionTracker("test")
	_, err := StartIngestion(context.Background(), spec, tracker, DefaultFetchRetry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load operations")
	assert.NotEmpty(t, tracker.Status().SourceMetrics["operations"].LastError)
}

func TestNewSessionFromFiles(t *testing.T) {
	customers := writeWorkbook(t, "DADOS", [][]interface{}{
		customerHeader(),
		customerRecord(retiree, "Até 1 SM"),
		customerRecord("Outro", "Até 1 SM"),
	})
	spec := model.DefaultReportSpec()
	spec.Customers.Path = customers
	spec.Operations.Path = ""
	spec.RiskBands.Path = ""

	s, err := NewSession(context.Background(), spec, WithCacheSize(8))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Segment.Rows())
	assert.Equal(t, "completed", s.Status().StageMetrics["ingestion"].Status)
}

func customerHeader() []interface{} {
	names := model.DefaultReportSpec().RequiredColumns()
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func customerRecord(cbo, income string) []interface{} {
	names := model.DefaultReportSpec().RequiredColumns()
	out := make([]interface{}, len(names))
	for i, n := range names {
		switch n {
		case "DESC_CBO":
			out[i] = cbo
		case "RENDA_CAT":
			out[i] = income
		default:
			out[i] = "1"
		}
	}
	return out
}
