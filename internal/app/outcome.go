package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/llpbakery/effmap/internal/adapters/eventfile"
	"github.com/llpbakery/effmap/internal/adapters/mq/worker"
	"github.com/llpbakery/effmap/internal/domain/combiner"
	"github.com/llpbakery/effmap/internal/domain/scan"
	"github.com/llpbakery/effmap/internal/domain/survival"
)

// Outcome is the result of one sample in a scan run.
type Outcome struct {
	Path     string
	Output   string
	Table    *scan.Table
	Err      error
	Duration time.Duration
}

// OK reports whether the sample produced its efficiency table.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Failed counts the outcomes that did not succeed.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// OutputName maps a sample path to its efficiency table name: the base name
// without .tar.gz, with ".lhe" removed, plus ".eff".
func OutputName(sample string) string {
	base := strings.TrimSuffix(filepath.Base(sample), ".tar.gz")
	return strings.ReplaceAll(base, ".lhe", "") + ".eff"
}

// failureReason labels an error for the failure counters.
func failureReason(err error) string {
	switch {
	case errors.Is(err, scan.ErrNoEvents):
		return "no_events"
	case errors.Is(err, combiner.ErrMalformedEvent):
		return "malformed_event"
	case errors.Is(err, combiner.ErrMissingEfficiency):
		return "missing_efficiency"
	case errors.Is(err, eventfile.ErrMalformedRecord), errors.Is(err, eventfile.ErrUnterminated):
		return "malformed_record"
	case errors.Is(err, survival.ErrNonPositiveMass), errors.Is(err, survival.ErrNegativeWidth), errors.Is(err, survival.ErrAtRest):
		return "invalid_kinematics"
	case errors.Is(err, os.ErrNotExist):
		return "not_found"
	case errors.Is(err, worker.ErrPanic):
		return "panic"
	default:
		return "io"
	}
}
