package scan

import "errors"

// Sentinel kinds for scan errors.
var (
	// ErrNoEvents is returned when no event survives the particle selection,
	// which would make the average undefined.
	ErrNoEvents = errors.New("no events left to average")
	ErrNoWidths = errors.New("width grid is empty")
)
