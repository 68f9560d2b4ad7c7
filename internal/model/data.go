package model

import (
	"encoding/json"
	"time"
)

// Metric is one named numeric summary. Value is Undefined when no valid input
// contributed to it.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MarshalJSON encodes undefined values as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string   `json:"name"`
		Value *float64 `json:"value"`
	}{m.Name, nullable(m.Value)})
}

// Proportion is the normalized frequency of one category.
type Proportion struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
}

// GroupRow is one output row of a grouped aggregation.
type GroupRow struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
}

// MarshalJSON encodes undefined values as null.
func (r GroupRow) MarshalJSON() ([]byte, error) {
	vals := make([]*float64, len(r.Values))
	for i, v := range r.Values {
		vals[i] = nullable(v)
	}
	return json.Marshal(struct {
		Key    string     `json:"key"`
		Values []*float64 `json:"values"`
	}{r.Key, vals})
}

// GroupedTable is the result of aggregating a segment by a grouping key.
type GroupedTable struct {
	GroupKey string     `json:"group_key"`
	Columns  []string   `json:"columns"`
	Rows     []GroupRow `json:"rows"`
}

// Keys returns the grouping values in row order.
func (g *GroupedTable) Keys() []string {
	keys := make([]string, len(g.Rows))
	for i, r := range g.Rows {
		keys[i] = r.Key
	}
	return keys
}

// Value returns the aggregated value for key and column, or Undefined.
func (g *GroupedTable) Value(key, column string) float64 {
	ci := -1
	for i, c := range g.Columns {
		if c == column {
			ci = i
			break
		}
	}
	if ci < 0 {
		return Undefined
	}
	for _, r := range g.Rows {
		if r.Key == key {
			return r.Values[ci]
		}
	}
	return Undefined
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "database", "csv", "json", "xlsx"
	Path        string    `json:"path"` // file path or database path
	Tables      []string  `json:"tables,omitempty"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func nullable(v float64) *float64 {
	if IsUndefined(v) {
		return nil
	}
	return &v
}
