// Package recorder keeps run bookkeeping: which samples were processed in a
// run, how they ended, and the efficiencies they produced.
package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/llpbakery/effmap/internal/domain/scan"
)

// Run kinds.
const (
	KindScan  = "scan"
	KindMerge = "merge"
)

// Run identifies one invocation of a binary.
type Run struct {
	ID      uuid.UUID
	Kind    string
	Started time.Time
}

// Sample is the outcome of one sample in a run.
type Sample struct {
	RunID    uuid.UUID
	Path     string
	Output   string
	OK       bool
	Err      error
	Duration time.Duration
	// Table is nil for failed samples.
	Table *scan.Table
}

// Summary closes a run.
type Summary struct {
	RunID    uuid.UUID
	Finished time.Time
	Samples  int
	Failed   int
}

// Recorder persists run bookkeeping.
type Recorder interface {
	StartRun(ctx context.Context, run Run) error
	RecordSample(ctx context.Context, s *Sample) error
	FinishRun(ctx context.Context, sum Summary) error
	Close() error
}

// Noop discards everything.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) StartRun(context.Context, Run) error         { return nil }
func (Noop) RecordSample(context.Context, *Sample) error { return nil }
func (Noop) FinishRun(context.Context, Summary) error    { return nil }
func (Noop) Close() error                                { return nil }

// New opens the recorder for driver, or a Noop when driver is empty.
func New(ctx context.Context, driver, dsn string) (Recorder, error) {
	if driver == "" {
		return Noop{}, nil
	}
	return Open(ctx, driver, dsn)
}
