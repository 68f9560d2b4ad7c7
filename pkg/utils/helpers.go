package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDuration safely parses duration string like "5m"
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return fallback
	}
	return duration
}

var (
	plainNumber   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	brNumber      = regexp.MustCompile(`^[+-]?(\d+|\d{1,3}(\.\d{3})+)(,\d+)?$`)
)

// ParseNumber parses a numeric cell. It accepts plain decimals ("1234.5",
// "1e3"), comma-grouped thousands ("1,234.5") and pt-BR numbers ("1.234,56",
// "12,5"). A lone comma is a pt-BR decimal separator. Group separators
// must split the integer part in threes. ok is false for anything else,
// including empty cells.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	var normalized string
	switch {
	case plainNumber.MatchString(s):
		normalized = s
	case brNumber.MatchString(s):
		normalized = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case groupedNumber.MatchString(s):
		normalized = strings.ReplaceAll(s, ",", "")
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether every non-empty cell parses as a number.
func IsNumeric(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, ok := ParseNumber(c); !ok {
			return false
		}
	}
	return true
}

// FormatPercent renders a rate as "12.34%", or "N/A" when undefined.
func FormatPercent(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return strconv.FormatFloat(v*100, 'f', decimals, 64) + "%"
}

// FormatCurrency renders a balance as "R$ 123.45", or "N/A" when undefined.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("R$ %.2f", v)
}

// FormatNumber renders a plain value with the given precision, or "N/A".
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
