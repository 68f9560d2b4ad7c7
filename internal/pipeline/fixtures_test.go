package pipeline

import (
	"testing"

	"go-segment-report/internal/model"

	"github.com/stretchr/testify/require"
)

const retiree = "Aposentados e beneficiários do inss"

func newTable(t *testing.T, name string, cols ...model.Column) *model.Table {
	t.Helper()
	tbl, err := model.NewTable(name, cols...)
	require.NoError(t, err)
	return tbl
}

func flagColumn(name string, cells ...string) model.Column {
	return BuildColumn(name, model.KindFlag, cells)
}

func numColumn(name string, cells ...string) model.Column {
	return BuildColumn(name, model.KindNumeric, cells)
}

func categoricalColumn(name string, cells ...string) model.Column {
	return BuildColumn(name, model.KindCategorical, cells)
}

// customerTable builds a customer table carrying every column of the default
// report spec. Cells absent from a row are empty.
func customerTable(t *testing.T, rows []map[string]string) *model.Table {
	t.Helper()
	spec := model.DefaultReportSpec()

	kinds := make(map[string]model.Kind)
	for _, c := range spec.Schema.Flags {
		kinds[c] = model.KindFlag
	}
	for _, c := range spec.Schema.Numeric {
		kinds[c] = model.KindNumeric
	}

	names := spec.RequiredColumns()
	cols := make([]model.Column, len(names))
	for i, name := range names {
		cells := make([]string, len(rows))
		for r, row := range rows {
			cells[r] = row[name]
		}
		cols[i] = BuildColumn(name, kinds[name], cells)
	}
	return newTable(t, "customers", cols...)
}

// customer is a shorthand for one retiree row.
func customer(income, region, account string, extra map[string]string) map[string]string {
	row := map[string]string{
		"DESC_CBO":     retiree,
		"RENDA_CAT":    income,
		"DES_CENTRAL":  region,
		"CODIGO_ASSOC": account,
	}
	for k, v := range extra {
		row[k] = v
	}
	return row
}

func sessionFor(t *testing.T, rows []map[string]string) *Session {
	t.Helper()
	s, err := NewSessionFromSources(model.DefaultReportSpec(), &LoadedSources{Customers: customerTable(t, rows)})
	require.NoError(t, err)
	return s
}
