package pipeline

import (
	"strconv"

	"go-segment-report/internal/model"
	"go-segment-report/pkg/utils"

	"gonum.org/v1/gonum/stat"
)

// flagTokens maps yes/no product tokens to their numeric value. "SN" is a
// known token that deliberately maps to missing.
var flagTokens = map[string]float64{
	"S":  1,
	"N":  0,
	"SN": model.Undefined,
}

// BuildColumn tags raw cells with a kind. Numeric columns get their parsed
// values; cells that do not parse become missing.
func BuildColumn(name string, kind model.Kind, cells []string) model.Column {
	col := model.Column{Name: name, Kind: kind, Cells: cells}
	if kind == model.KindNumeric {
		col.Values = parseCells(cells)
	}
	return col
}

// InferKind decides the kind of a column without a declared schema entry.
// A column is numeric when it has at least one value and every non-empty
// cell parses as a number.
func InferKind(cells []string) model.Kind {
	hasValue := false
	for _, c := range cells {
		if c != "" {
			hasValue = true
			break
		}
	}
	if hasValue && utils.IsNumeric(cells) {
		return model.KindNumeric
	}
	return model.KindCategorical
}

// CoerceFlag converts a yes/no flag column to numeric. Numeric columns are
// returned unchanged. Anything that is neither a flag token nor a number
// becomes missing; the function never fails.
func CoerceFlag(col model.Column) model.Column {
	if col.Kind == model.KindNumeric {
		return col
	}
	values := make([]float64, len(col.Cells))
	for i, cell := range col.Cells {
		if v, ok := flagTokens[cell]; ok {
			values[i] = v
			continue
		}
		if f, ok := utils.ParseNumber(cell); ok {
			values[i] = f
			continue
		}
		values[i] = model.Undefined
	}
	return numericColumn(col.Name, values)
}

// CoerceNumeric parses every cell of a column as a number, degrading
// unparseable cells to missing. Numeric columns are returned unchanged.
func CoerceNumeric(col model.Column) model.Column {
	if col.Kind == model.KindNumeric {
		return col
	}
	return numericColumn(col.Name, parseCells(col.Cells))
}

// ToNumeric converts a column to numeric according to its tag.
func ToNumeric(col model.Column) model.Column {
	switch col.Kind {
	case model.KindNumeric:
		return col
	case model.KindFlag:
		return CoerceFlag(col)
	default:
		return CoerceNumeric(col)
	}
}

// Mean averages the defined values; it is Undefined when there are none.
func Mean(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !model.IsUndefined(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return model.Undefined
	}
	return stat.Mean(defined, nil)
}

// Sum adds the defined values; it is Undefined when there are none.
func Sum(values []float64) float64 {
	total, n := 0.0, 0
	for _, v := range values {
		if !model.IsUndefined(v) {
			total += v
			n++
		}
	}
	if n == 0 {
		return model.Undefined
	}
	return total
}

// SafeMean averages a column of any kind. Non-numeric columns are coerced
// first; a column without a single valid value yields Undefined.
func SafeMean(col model.Column) float64 {
	return Mean(ToNumeric(col).Values)
}

func parseCells(cells []string) []float64 {
	values := make([]float64, len(cells))
	for i, c := range cells {
		if f, ok := utils.ParseNumber(c); ok {
			values[i] = f
		} else {
			values[i] = model.Undefined
		}
	}
	return values
}

func numericColumn(name string, values []float64) model.Column {
	cells := make([]string, len(values))
	for i, v := range values {
		if !model.IsUndefined(v) {
			cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return model.Column{Name: name, Kind: model.KindNumeric, Cells: cells, Values: values}
}
