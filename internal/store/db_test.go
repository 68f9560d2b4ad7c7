package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go-segment-report/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func bandsTable(t *testing.T, bands ...string) *model.Table {
	t.Helper()
	limits := make([]float64, len(bands))
	cells := make([]string, len(bands))
	for i := range bands {
		limits[i] = float64(i+1) * 100
		cells[i] = "x"
	}
	limits[len(limits)-1] = model.Undefined
	cells[len(cells)-1] = ""
	tbl, err := model.NewTable("risk_bands",
		model.Column{Name: "FAIXA", Kind: model.KindCategorical, Cells: bands},
		model.Column{Name: "LIMITE", Kind: model.KindNumeric, Cells: cells, Values: limits},
		model.Column{Name: `DESC "RISCO"`, Kind: model.KindCategorical, Cells: cells},
	)
	require.NoError(t, err)
	return tbl
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}

func TestReplaceTable(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	n, err := st.ReplaceTable(ctx, "faixa_risco", bandsTable(t, "A", "B", "C"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = st.ReplaceTable(ctx, "faixa_risco", bandsTable(t, "A", "B"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := st.CountRows(ctx, "faixa_risco")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var nulls int
	require.NoError(t, st.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM "faixa_risco" WHERE "LIMITE" IS NULL AND "DESC ""RISCO""" IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls, "undefined and empty cells are stored as NULL")

	var limit float64
	require.NoError(t, st.db.QueryRowContext(ctx,
		`SELECT "LIMITE" FROM "faixa_risco" WHERE "FAIXA" = 'A'`).Scan(&limit))
	assert.Equal(t, 100.0, limit)
}

func TestReplaceTableErrors(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.ReplaceTable(ctx, "", bandsTable(t, "A"))
	assert.Error(t, err)

	empty, err := model.NewTable("empty")
	require.NoError(t, err)
	_, err = st.ReplaceTable(ctx, "t", empty)
	assert.ErrorIs(t, err, model.ErrMalformedSource)
}

func TestRunHistory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run := model.Run{ID: "run-1", SessionID: "s-1", Kind: "report", Format: "csv", IncomeCategory: "Até 1 SM"}
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, "Até 1 SM", got.IncomeCategory)
	assert.Empty(t, got.Errors)

	require.NoError(t, st.SaveRunError(ctx, "run-1", errors.New("disk full")))
	require.NoError(t, st.SaveRunError(ctx, "run-1", nil))
	require.NoError(t, st.UpdateRunStatus(ctx, "run-1", "failed", "", 0))

	got, err = st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, []string{"disk full"}, got.Errors)

	require.NoError(t, st.SaveRun(ctx, model.Run{ID: "run-2", Kind: "database", Status: "completed"}))
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunNotFound(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = st.UpdateRunStatus(ctx, "nope", "completed", "", 0)
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
