package model

import "errors"

var (
	// ErrMissingColumn is a configuration error: a table lacks a column the
	// report depends on. It is never recovered from.
	ErrMissingColumn = errors.New("missing expected column")

	// ErrMalformedSource marks an input file that cannot be read as configured
	// (wrong delimiter, wrong encoding, missing sheet, broken CSV).
	ErrMalformedSource = errors.New("malformed source")

	// ErrNotNumeric is returned when a plain mean is requested over a column
	// that was not tagged numeric at load time.
	ErrNotNumeric = errors.New("column is not numeric")

	// ErrUnknownSection is returned for a report section name that does not exist.
	ErrUnknownSection = errors.New("unknown report section")

	// ErrUnknownFormat is returned for an unsupported export format.
	ErrUnknownFormat = errors.New("unknown export format")
)
