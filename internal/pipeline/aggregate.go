package pipeline

import (
	"fmt"
	"sort"

	"go-segment-report/internal/model"
)

// AggOp is an aggregation operator applied to one column of each group.
type AggOp int

const (
	// OpMean averages a column tagged numeric at load time.
	OpMean AggOp = iota
	// OpCount counts non-missing cells.
	OpCount
	// OpSum adds the defined numeric values.
	OpSum
	// OpSafeMean coerces the column according to its tag before averaging.
	OpSafeMean
)

func (op AggOp) String() string {
	switch op {
	case OpMean:
		return "mean"
	case OpCount:
		return "count"
	case OpSum:
		return "sum"
	case OpSafeMean:
		return "safe_mean"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// AggSpec requests one aggregated output column.
type AggSpec struct {
	Column string
	Op     AggOp
	As     string // output column name, defaults to Column
}

func (s AggSpec) name() string {
	if s.As != "" {
		return s.As
	}
	return s.Column
}

// KeyOrder controls the row order of an unranked grouping.
type KeyOrder int

const (
	OrderKeyAscending KeyOrder = iota
	OrderFirstSeen
)

// GroupOptions controls ordering and truncation of grouped output.
type GroupOptions struct {
	Order  KeyOrder
	SortBy string // output column to rank by, descending
	Limit  int    // keep the first Limit rows after ranking; 0 keeps all
}

// groupAccumulator collects row indexes for a single grouping value.
type groupAccumulator struct {
	key  string
	rows []int
}

// GroupBy produces one row per distinct value of key actually present in the
// segment, with the requested aggregates. Missing key cells form their own
// group (the empty string) so that no row is silently dropped.
func GroupBy(seg *model.Table, key string, specs []AggSpec, opts GroupOptions) (*model.GroupedTable, error) {
	keyCol, err := seg.Column(key)
	if err != nil {
		return nil, err
	}

	cols := make([]model.Column, len(specs))
	names := make([]string, len(specs))
	for i, spec := range specs {
		col, err := seg.Column(spec.Column)
		if err != nil {
			return nil, err
		}
		if spec.Op == OpMean || spec.Op == OpSum {
			if col.Kind != model.KindNumeric {
				return nil, fmt.Errorf("%w: %s %q is %s", model.ErrNotNumeric, spec.Op, spec.Column, col.Kind)
			}
		}
		if spec.Op == OpSafeMean {
			col = ToNumeric(col)
		}
		cols[i] = col
		names[i] = spec.name()
	}
	if opts.SortBy != "" && indexOf(names, opts.SortBy) < 0 {
		return nil, fmt.Errorf("%w: ranking column %q is not aggregated", model.ErrMissingColumn, opts.SortBy)
	}

	// Enumerate groups in first-seen order; blank keys share the "" group
	groups := make([]*groupAccumulator, 0)
	byKey := make(map[string]*groupAccumulator)
	for i, cell := range keyCol.Cells {
		if isBlank(cell) {
			cell = ""
		}
		acc, ok := byKey[cell]
		if !ok {
			acc = &groupAccumulator{key: cell}
			byKey[cell] = acc
			groups = append(groups, acc)
		}
		acc.rows = append(acc.rows, i)
	}

	out := &model.GroupedTable{GroupKey: key, Columns: names, Rows: make([]model.GroupRow, 0, len(groups))}
	for _, acc := range groups {
		row := model.GroupRow{Key: acc.key, Values: make([]float64, len(specs))}
		for i, spec := range specs {
			row.Values[i] = aggregate(cols[i], spec.Op, acc.rows)
		}
		out.Rows = append(out.Rows, row)
	}

	switch {
	case opts.SortBy != "":
		ci := indexOf(names, opts.SortBy)
		sort.SliceStable(out.Rows, func(a, b int) bool {
			return descending(out.Rows[a].Values[ci], out.Rows[b].Values[ci])
		})
	case opts.Order == OrderKeyAscending:
		sort.SliceStable(out.Rows, func(a, b int) bool {
			return out.Rows[a].Key < out.Rows[b].Key
		})
	}
	if opts.Limit > 0 && len(out.Rows) > opts.Limit {
		out.Rows = out.Rows[:opts.Limit]
	}
	return out, nil
}

// aggregate applies op to the cells of col at the given row indexes.
func aggregate(col model.Column, op AggOp, rows []int) float64 {
	if op == OpCount {
		n := 0
		for _, r := range rows {
			if !isMissingCell(col, r) {
				n++
			}
		}
		return float64(n)
	}
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = col.Values[r]
	}
	if op == OpSum {
		return Sum(values)
	}
	return Mean(values)
}

func isMissingCell(col model.Column, r int) bool {
	if col.Values != nil {
		return model.IsUndefined(col.Values[r])
	}
	return isBlank(col.Cells[r])
}

// UsageRates flag-coerces each column of the segment and returns the mean of
// each, sorted by descending mean. Ties keep the given column order and
// undefined means sort last. An empty segment yields all-undefined metrics.
func UsageRates(seg *model.Table, columns []string) ([]model.Metric, error) {
	metrics := make([]model.Metric, 0, len(columns))
	for _, name := range columns {
		col, err := seg.Column(name)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, model.Metric{
			Name:  name,
			Value: Mean(CoerceFlag(col).Values),
		})
	}
	sort.SliceStable(metrics, func(a, b int) bool {
		return descending(metrics[a].Value, metrics[b].Value)
	})
	return metrics, nil
}

// Distribution returns the normalized frequency of each distinct non-missing
// value of column, ordered by descending count with ties in first-seen order.
func Distribution(seg *model.Table, column string) ([]model.Proportion, error) {
	col, err := seg.Column(column)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	order := make([]string, 0)
	total := 0
	for _, cell := range col.Cells {
		if isBlank(cell) {
			continue
		}
		if _, ok := counts[cell]; !ok {
			order = append(order, cell)
		}
		counts[cell]++
		total++
	}
	out := make([]model.Proportion, 0, len(order))
	for _, category := range order {
		out = append(out, model.Proportion{
			Category: category,
			Count:    counts[category],
			Share:    float64(counts[category]) / float64(total),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Count > out[b].Count
	})
	return out, nil
}

// RowSums adds the given columns of each grouped row into a new single-column
// table. A row whose inputs are all undefined stays undefined.
func RowSums(g *model.GroupedTable, columns []string, as string) (*model.GroupedTable, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = indexOf(g.Columns, c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %q in grouped %s", model.ErrMissingColumn, c, g.GroupKey)
		}
	}
	out := &model.GroupedTable{GroupKey: g.GroupKey, Columns: []string{as}, Rows: make([]model.GroupRow, len(g.Rows))}
	for i, row := range g.Rows {
		values := make([]float64, len(idx))
		for j, ci := range idx {
			values[j] = row.Values[ci]
		}
		out.Rows[i] = model.GroupRow{Key: row.Key, Values: []float64{Sum(values)}}
	}
	return out, nil
}

// descending orders a before b when a is larger; undefined values go last.
func descending(a, b float64) bool {
	if model.IsUndefined(a) {
		return false
	}
	if model.IsUndefined(b) {
		return true
	}
	return a > b
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
