package pipeline

import (
	"strings"

	"go-segment-report/internal/model"
)

// isBlank reports whether a categorical cell is missing. Whitespace-only
// cells count as missing everywhere a cell is used as a key.
func isBlank(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

// FilterEquals returns the rows whose cell in column equals value exactly.
// Matching is case and whitespace sensitive. An empty result is not an error.
func FilterEquals(t *model.Table, column, value string) (*model.Table, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	rows := make([]int, 0)
	for i, cell := range col.Cells {
		if cell == value {
			rows = append(rows, i)
		}
	}
	return t.Select(rows), nil
}

// DistinctValues returns the distinct non-blank cells of a column in
// first-seen order.
func DistinctValues(t *model.Table, column string) ([]string, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, cell := range col.Cells {
		if !isBlank(cell) && !seen[cell] {
			seen[cell] = true
			values = append(values, cell)
		}
	}
	return values, nil
}
