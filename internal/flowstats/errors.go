package flowstats

import "errors"

var (
	// ErrInvalidInput is returned for a malformed or missing series.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParameter is returned for an out-of-domain scalar option, such as a
	// non-positive basin area or a month outside 1-12.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidRange is returned when the resolved start year is after the end year.
	ErrInvalidRange = errors.New("invalid year range")

	// ErrMissingParameter is returned when yield units are requested without a basin area.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrConflictingInput is returned when both or neither of an inline series and a
	// station identifier are supplied.
	ErrConflictingInput = errors.New("conflicting input")
)
