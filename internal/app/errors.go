package app

import "errors"

// Sentinel kinds for run errors.
var (
	// ErrNotProcessed marks a sample the run was cancelled before reaching.
	ErrNotProcessed = errors.New("sample not processed")
	ErrNoModelFiles = errors.New("no model file found")
)
