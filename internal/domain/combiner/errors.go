package combiner

import "errors"

// Sentinel kinds for combiner errors.
var (
	// ErrMalformedEvent marks events the per-event formulas cannot handle
	// (no particles, or more than two).
	ErrMalformedEvent      = errors.New("malformed event")
	ErrMissingEfficiency   = errors.New("particle has no efficiency for label")
	ErrNoSignalRegions     = errors.New("no signal regions configured")
	ErrInvalidSignalRegion = errors.New("invalid signal region")
)
