package domain

import "errors"

// Shared by every package that validates GST inputs, so the HTTP layer maps
// them to one error code.
var (
	ErrInvalidTaxRate   = errors.New("invalid_tax_rate")
	ErrInvalidGSTNumber = errors.New("invalid_gst_number")
	ErrInvalidState     = errors.New("invalid_state")
)
