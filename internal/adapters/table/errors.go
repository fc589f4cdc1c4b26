package table

import "errors"

// Sentinel kinds for table errors. Row width mismatches surface as
// grid.ErrRowWidth.
var (
	ErrNoHeader = errors.New("table has no header line")
	ErrBadValue = errors.New("value is not a number")
)
