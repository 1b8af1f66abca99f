package table

import "errors"

var (
	// ErrNoColumns is returned when the input has no header row at all.
	ErrNoColumns = errors.New("no columns to parse from file")

	// ErrInvalidEncoding is returned when the input is not valid UTF-8.
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")

	// ErrTooManyFields is returned when a record has more fields than the header.
	ErrTooManyFields = errors.New("too many fields in record")

	// ErrColumnNotFound is returned when a filter names a column the table does not have.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNotNumeric is returned when a present value of a numeric column does not parse as a number.
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrRowLength is returned by Append when the row width differs from the column count.
	ErrRowLength = errors.New("row length does not match column count")
)
