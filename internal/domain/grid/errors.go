package grid

import "errors"

var (
	ErrRowWidth      = errors.New("row width does not match header")
	ErrUnknownColumn = errors.New("unknown column")
)
