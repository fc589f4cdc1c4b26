package eventfile

import "errors"

// Sentinel kinds for sample decoding errors.
var (
	ErrMalformedRecord = errors.New("malformed particle record")
	ErrUnterminated    = errors.New("event block is not terminated")
	ErrEmptyArchive    = errors.New("archive holds no regular file")
	ErrNoLabels        = errors.New("efficiency label list is empty")
)
