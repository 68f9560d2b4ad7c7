package model

import (
	"fmt"
	"math"
)

// Kind tags a column with its semantic type. It is decided once at load time
// so that aggregation code dispatches on the tag instead of inspecting values.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindFlag:
		return "flag"
	default:
		return "categorical"
	}
}

// Undefined is the "no value" result. It is never conflated with zero.
var Undefined = math.NaN()

// IsUndefined reports whether v is the undefined value.
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

// Column is a named, tagged column of raw cells. Numeric columns also carry
// their parsed values (Undefined for missing cells).
type Column struct {
	Name   string    `json:"name"`
	Kind   Kind      `json:"kind"`
	Cells  []string  `json:"cells"`
	Values []float64 `json:"-"`
}

// Len returns the number of cells in the column.
func (c Column) Len() int {
	return len(c.Cells)
}

// Table is an immutable, column-oriented table. Every transform returns a new
// Table; nothing mutates one in place after NewTable.
type Table struct {
	Name    string
	columns []Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns of equal length.
func NewTable(name string, columns ...Column) (*Table, error) {
	t := &Table{
		Name:  name,
		index: make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d cells, want %d", ErrMalformedSource, col.Name, col.Len(), t.rows)
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q in %s", ErrMalformedSource, col.Name, name)
		}
		t.index[col.Name] = i
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	return t.rows
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns a copy of the column headers and cells.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, error) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q in table %s", ErrMissingColumn, name, t.Name)
	}
	return t.columns[i], nil
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Select returns a new table holding only the given row indexes, in order.
func (t *Table) Select(rows []int) *Table {
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		nc := Column{Name: c.Name, Kind: c.Kind, Cells: make([]string, len(rows))}
		if c.Values != nil {
			nc.Values = make([]float64, len(rows))
		}
		for j, r := range rows {
			nc.Cells[j] = c.Cells[r]
			if c.Values != nil {
				nc.Values[j] = c.Values[r]
			}
		}
		cols[i] = nc
	}
	out := &Table{Name: t.Name, columns: cols, index: t.index, rows: len(rows)}
	return out
}

// Row returns the cells of row i keyed by column name.
func (t *Table) Row(i int) map[string]string {
	row := make(map[string]string, len(t.columns))
	for _, c := range t.columns {
		row[c.Name] = c.Cells[i]
	}
	return row
}
