package workflows

import "errors"

var (
	// ErrSourceMissing is returned when the record's original file is absent
	ErrSourceMissing = errors.New("source file missing")

	// ErrProcessing is returned when the original cannot be converted
	ErrProcessing = errors.New("processing failed")

	// ErrInvalidRequest is returned when the conversion cannot be applied to the record
	ErrInvalidRequest = errors.New("invalid conversion request")
)
