package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llpbakery/effmap/internal/adapters/eventfile"
	"github.com/llpbakery/effmap/internal/adapters/mq/queue"
	"github.com/llpbakery/effmap/internal/adapters/mq/worker"
	"github.com/llpbakery/effmap/internal/adapters/plot"
	"github.com/llpbakery/effmap/internal/adapters/recorder"
	"github.com/llpbakery/effmap/internal/adapters/table"
	"github.com/llpbakery/effmap/internal/domain/model"
	"github.com/llpbakery/effmap/internal/domain/scan"
	"github.com/llpbakery/effmap/pkg/logger"
	"github.com/llpbakery/effmap/pkg/metrics"
)

// Aggregator turns the events of one sample into an efficiency table.
type Aggregator interface {
	Scan(ctx context.Context, events []model.Event, widths []float64) (*scan.Table, error)
}

// Scanner runs the width scan over many samples in parallel, one sample per
// job, and writes one efficiency table per sample.
type Scanner struct {
	aggregator Aggregator
	widths     []float64
	labels     []string
	outDir     string
	plotDir    string
	plotFormat string
	workers    int
	recorder   recorder.Recorder
	logger     logger.Logger
}

// ScanOption applies a configuration option to the Scanner.
type ScanOption func(*Scanner)

// WithLogger sets a custom logger for the scanner.
func WithLogger(l logger.Logger) ScanOption {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount caps the number of samples processed at once. Below one
// means one per CPU.
func WithWorkerCount(n int) ScanOption {
	return func(s *Scanner) {
		s.workers = n
	}
}

// WithWidths sets the width grid in GeV.
func WithWidths(widths ...float64) ScanOption {
	return func(s *Scanner) {
		if len(widths) > 0 {
			s.widths = widths
		}
	}
}

// WithLabels sets the efficiency columns of the particle records.
func WithLabels(labels ...string) ScanOption {
	return func(s *Scanner) {
		if len(labels) > 0 {
			s.labels = labels
		}
	}
}

// WithOutDir sets where efficiency tables are written.
func WithOutDir(dir string) ScanOption {
	return func(s *Scanner) {
		if dir != "" {
			s.outDir = dir
		}
	}
}

// WithPlotDir enables one plot per sample in dir, in the given image format.
func WithPlotDir(dir, format string) ScanOption {
	return func(s *Scanner) {
		s.plotDir = dir
		if format != "" {
			s.plotFormat = format
		}
	}
}

// WithRecorder persists run bookkeeping.
func WithRecorder(r recorder.Recorder) ScanOption {
	return func(s *Scanner) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewScanner creates a scanner around an aggregator.
func NewScanner(agg Aggregator, opts ...ScanOption) *Scanner {
	s := &Scanner{
		aggregator: agg,
		widths:     []float64{0},
		labels:     eventfile.DefaultLabels,
		outDir:     ".",
		plotFormat: "png",
		recorder:   recorder.Noop{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("scan")
	}

	return s
}

// Run processes every file and returns one outcome per file, in input
// order. A failing sample never stops the others.
func (s *Scanner) Run(ctx context.Context, files []string) []Outcome {
	if len(files) == 0 {
		s.logger.Warn(ctx, "no sample to process")
		return nil
	}

	runID := uuid.New()
	log := s.logger.With(logger.String("run_id", runID.String()))
	started := time.Now()
	s.record(ctx, log, func() error {
		return s.recorder.StartRun(ctx, recorder.Run{ID: runID, Kind: recorder.KindScan, Started: started})
	})
	metrics.UpdateWidthsScanned(len(s.widths))

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(files)))
	for i, f := range files {
		q.Enqueue(ctx, queue.NewJob(i, f))
	}
	_ = q.Close()

	var (
		mu     sync.Mutex
		tables = make(map[int]*scan.Table, len(files))
	)
	proc := worker.ProcessorFunc(func(ctx context.Context, job queue.Job) error {
		tbl, err := s.process(ctx, job.Path)
		if err != nil {
			return err
		}
		mu.Lock()
		tables[job.Seq] = tbl
		mu.Unlock()
		return nil
	})

	workers := s.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	pool := worker.NewPool(min(workers, len(files)), q, proc, worker.WithLogger(log.Named("worker")))
	log.Info(ctx, "scan started",
		logger.Int("samples", len(files)),
		logger.Int("workers", pool.Size()),
		logger.Float64s("widths", s.widths),
	)

	outcomes := make([]Outcome, len(files))
	for i, f := range files {
		outcomes[i] = Outcome{Path: f, Err: ErrNotProcessed}
	}
	for _, res := range pool.Collect(ctx) {
		o := Outcome{Path: res.Job.Path, Err: res.Err, Duration: res.Duration}
		if res.OK() {
			o.Output = filepath.Join(s.outDir, OutputName(res.Job.Path))
			o.Table = tables[res.Job.Seq]
		}
		outcomes[res.Job.Seq] = o
	}
	if err := ctx.Err(); err != nil {
		for i := range outcomes {
			if errors.Is(outcomes[i].Err, ErrNotProcessed) {
				outcomes[i].Err = fmt.Errorf("%w: %w", ErrNotProcessed, err)
			}
		}
	}

	for _, o := range outcomes {
		if o.OK() {
			metrics.RecordSampleProcessed()
			log.Info(ctx, "sample done",
				logger.String("sample", o.Path),
				logger.String("output", o.Output),
				logger.Int("events", o.Table.Events),
				logger.Duration("took", o.Duration),
			)
		} else {
			metrics.RecordSampleFailed(failureReason(o.Err))
			log.Error(ctx, "sample failed", logger.String("sample", o.Path), logger.Error(o.Err))
		}

		sample := &recorder.Sample{
			RunID:    runID,
			Path:     o.Path,
			Output:   o.Output,
			OK:       o.OK(),
			Err:      o.Err,
			Duration: o.Duration,
			Table:    o.Table,
		}
		s.record(ctx, log, func() error { return s.recorder.RecordSample(ctx, sample) })
	}

	failed := Failed(outcomes)
	s.record(ctx, log, func() error {
		return s.recorder.FinishRun(ctx, recorder.Summary{RunID: runID, Finished: time.Now(), Samples: len(outcomes), Failed: failed})
	})
	log.Info(ctx, "scan finished",
		logger.Int("samples", len(outcomes)),
		logger.Int("failed", failed),
		logger.Duration("took", time.Since(started)),
	)
	return outcomes
}

// process reads, scans and writes one sample.
func (s *Scanner) process(ctx context.Context, path string) (*scan.Table, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSampleLatency(float64(time.Since(start).Milliseconds()))
	}()

	events, err := eventfile.Read(path, s.labels)
	if err != nil {
		return nil, err
	}

	tbl, err := s.aggregator.Scan(ctx, events, s.widths)
	if err != nil {
		return nil, err
	}
	metrics.RecordEventsProcessed(tbl.Events)
	metrics.RecordEventsSkipped(tbl.Skipped)
	if tbl.Skipped > 0 {
		s.logger.Debug(ctx, "events without selected particles",
			logger.String("sample", path),
			logger.Int("skipped", tbl.Skipped),
		)
	}

	name := OutputName(path)
	if err := table.WriteFile(filepath.Join(s.outDir, name), tbl.Grid()); err != nil {
		return nil, err
	}

	if s.plotDir != "" {
		s.drawPlot(ctx, path, strings.TrimSuffix(name, ".eff"), tbl)
	}
	return tbl, nil
}

// drawPlot never fails the sample: a missing plot only costs a warning.
func (s *Scanner) drawPlot(ctx context.Context, sample, stem string, tbl *scan.Table) {
	if err := os.MkdirAll(s.plotDir, 0o755); err != nil {
		s.logger.Warn(ctx, "plot directory", logger.String("dir", s.plotDir), logger.Error(err))
		return
	}
	out := filepath.Join(s.plotDir, stem+"."+s.plotFormat)
	err := plot.Curve(tbl, out, plot.WithTitle(stem))
	switch {
	case err == nil:
	case errors.Is(err, plot.ErrNoPoints):
		s.logger.Debug(ctx, "nothing to plot", logger.String("sample", sample))
	default:
		s.logger.Warn(ctx, "plot failed", logger.String("sample", sample), logger.Error(err))
	}
}

// record runs a bookkeeping call; failures are logged and counted only.
func (s *Scanner) record(ctx context.Context, log logger.Logger, fn func() error) {
	if err := fn(); err != nil {
		metrics.RecordRecorderError()
		log.Warn(ctx, "recorder failed", logger.Error(err))
	}
}
