package recorder

import "errors"

// Sentinel kinds for recorder errors.
var (
	ErrUnknownDriver = errors.New("unknown recorder driver")
	ErrNoDSN         = errors.New("recorder dsn is empty")
)
