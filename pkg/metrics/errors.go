package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrNoTextfile = errors.New("metrics textfile path is empty")
)
