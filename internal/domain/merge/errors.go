package merge

import "errors"

// Sentinel kinds for merge errors. Any of them aborts the whole merge.
var (
	ErrNoPoints          = errors.New("no mass point to merge")
	ErrMissingColumn     = errors.New("efficiency column missing from table")
	ErrMissingMass       = errors.New("mass point lacks a mass column")
	ErrUnknownSortColumn = errors.New("sort column is not an output column")
	ErrNoColumns         = errors.New("no output columns requested")
)
