package pipeline

import (
	"fmt"
	"strings"

	"go-segment-report/internal/model"
)

// ValidateColumns checks that the table carries every required column.
// Missing columns are a configuration error and are all reported at once.
func ValidateColumns(t *model.Table, required []string) error {
	var missing []string
	for _, field := range required {
		if !t.HasColumn(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table %s lacks %s", model.ErrMissingColumn, t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSpec checks the customer table against everything the report
// sections read, including the declared kinds of numeric columns.
func ValidateSpec(customers *model.Table, spec model.ReportSpec) error {
	if err := ValidateColumns(customers, spec.RequiredColumns()); err != nil {
		return err
	}
	numeric := append([]string{spec.Columns.Score, spec.Columns.PersonalCredit}, spec.Columns.Credit...)
	for _, name := range numeric {
		col, err := customers.Column(name)
		if err != nil {
			return err
		}
		if col.Kind != model.KindNumeric {
			return fmt.Errorf("%w: %q is %s", model.ErrNotNumeric, name, col.Kind)
		}
	}
	if spec.TopRegions < 0 {
		return fmt.Errorf("top_regions must not be negative, got %d", spec.TopRegions)
	}
	return nil
}
