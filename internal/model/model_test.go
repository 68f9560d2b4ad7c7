package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	tbl, err := NewTable("t",
		Column{Name: "A", Cells: []string{"x", "y", "z"}},
		Column{Name: "B", Kind: KindNumeric, Cells: []string{"1", "", "3"}, Values: []float64{1, Undefined, 3}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, []string{"A", "B"}, tbl.ColumnNames())
	assert.True(t, tbl.HasColumn("B"))
	assert.Equal(t, map[string]string{"A": "y", "B": ""}, tbl.Row(1))

	_, err = tbl.Column("C")
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = NewTable("t", Column{Name: "A", Cells: []string{"x"}}, Column{Name: "B"})
	assert.ErrorIs(t, err, ErrMalformedSource)

	_, err = NewTable("t", Column{Name: "A"}, Column{Name: "A"})
	assert.ErrorIs(t, err, ErrMalformedSource)
}

func TestTableSelect(t *testing.T) {
	tbl, err := NewTable("t",
		Column{Name: "A", Cells: []string{"x", "y", "z"}},
		Column{Name: "B", Kind: KindNumeric, Cells: []string{"1", "2", "3"}, Values: []float64{1, 2, 3}},
	)
	require.NoError(t, err)

	sel := tbl.Select([]int{2, 0})
	assert.Equal(t, 2, sel.Rows())
	b, err := sel.Column("B")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, b.Values)
	assert.Equal(t, []string{"3", "1"}, b.Cells)

	empty := tbl.Select(nil)
	assert.Equal(t, 0, empty.Rows())
	assert.Equal(t, tbl.ColumnNames(), empty.ColumnNames())
}

func TestUndefinedEncodesAsNull(t *testing.T) {
	data, err := json.Marshal(Metric{Name: "m", Value: Undefined})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"m","value":null}`, string(data))

	data, err = json.Marshal(GroupRow{Key: "k", Values: []float64{0, Undefined}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"k","values":[0,null]}`, string(data))
}

func TestGroupedTableLookup(t *testing.T) {
	g := &GroupedTable{
		GroupKey: "K",
		Columns:  []string{"n"},
		Rows:     []GroupRow{{Key: "a", Values: []float64{2}}, {Key: "b", Values: []float64{1}}},
	}
	assert.Equal(t, []string{"a", "b"}, g.Keys())
	assert.Equal(t, 2.0, g.Value("a", "n"))
	assert.True(t, IsUndefined(g.Value("c", "n")))
	assert.True(t, IsUndefined(g.Value("a", "missing")))
}

func TestRequiredColumnsAreUnique(t *testing.T) {
	spec := DefaultReportSpec()
	cols := spec.RequiredColumns()
	seen := make(map[string]bool)
	for _, c := range cols {
		assert.False(t, seen[c], c)
		seen[c] = true
	}
	assert.Equal(t, "DESC_CBO", cols[0])
	assert.True(t, seen["SALDO_IMOBILIARIO"])
}

func TestReportSectionLookup(t *testing.T) {
	r := &Report{Sections: []Section{{Name: "usage"}, {Name: "regional"}}}
	require.NotNil(t, r.Section("regional"))
	assert.Equal(t, "regional", r.Section("regional").Name)
	assert.Nil(t, r.Section("nope"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "numeric", KindNumeric.String())
	assert.Equal(t, "flag", KindFlag.String())
	assert.Equal(t, "categorical", KindCategorical.String())
}
