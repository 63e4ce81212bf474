package quota

import "errors"

var (
	// ErrQuotaExceeded indicates an operation was rejected because the
	// current window's budget is exhausted. Callers may wait for the window
	// to elapse and retry.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInvalidLimit is returned when a gate is created with a non-positive limit.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrInvalidWindow is returned when a gate is created with a non-positive window.
	ErrInvalidWindow = errors.New("invalid window")
)
