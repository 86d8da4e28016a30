package focus

import "errors"

var (
	// ErrInvalidTolerance is returned when a tolerance is zero, negative or NaN.
	ErrInvalidTolerance = errors.New("invalid tolerance")

	// ErrUnknownState is returned when parsing an unrecognized state label.
	ErrUnknownState = errors.New("unknown state")
)
