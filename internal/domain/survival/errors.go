package survival

import "errors"

// Sentinel kinds for survival errors.
var (
	ErrNonPositiveMass = errors.New("particle mass must be positive")
	ErrNegativeWidth   = errors.New("width must be non-negative")
	ErrAtRest          = errors.New("particle at rest has no decay length")
)
