package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/llpbakery/effmap/internal/adapters/recorder"
	"github.com/llpbakery/effmap/internal/adapters/slha"
	"github.com/llpbakery/effmap/internal/adapters/table"
	"github.com/llpbakery/effmap/internal/domain/grid"
	"github.com/llpbakery/effmap/internal/domain/merge"
	"github.com/llpbakery/effmap/pkg/logger"
	"github.com/llpbakery/effmap/pkg/metrics"
)

// MassColumn names a grid column filled from the MASS block entry of PDG.
type MassColumn struct {
	Name string
	PDG  int
}

// MergeService pairs model files with efficiency tables and writes the
// merged grid.
type MergeService struct {
	effDir   string
	slhaDir  string
	output   string
	masses   []MassColumn
	effs     []merge.Column
	sortBy   string
	recorder recorder.Recorder
	logger   logger.Logger
}

// MergeOption applies a configuration option to the MergeService.
type MergeOption func(*MergeService)

// WithMergeLogger sets a custom logger for the merge.
func WithMergeLogger(l logger.Logger) MergeOption {
	return func(m *MergeService) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMergeRecorder persists run bookkeeping.
func WithMergeRecorder(r recorder.Recorder) MergeOption {
	return func(m *MergeService) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithSortBy picks the sort column. The first mass column is the default.
func WithSortBy(column string) MergeOption {
	return func(m *MergeService) {
		if column != "" {
			m.sortBy = column
		}
	}
}

// NewMergeService creates a merge over slhaDir/*.slha and effDir/*.eff
// that writes output.
func NewMergeService(effDir, slhaDir, output string, masses []MassColumn, effs []merge.Column, opts ...MergeOption) *MergeService {
	m := &MergeService{
		effDir:   effDir,
		slhaDir:  slhaDir,
		output:   output,
		masses:   masses,
		effs:     effs,
		recorder: recorder.Noop{},
	}
	if len(masses) > 0 {
		m.sortBy = masses[0].Name
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logger.Get().Named("merge")
	}

	return m
}

// Run builds and writes the grid. Model files without an efficiency table
// are skipped with a warning; any other problem aborts the merge before
// the output is touched.
func (m *MergeService) Run(ctx context.Context) error {
	runID := uuid.New()
	log := m.logger.With(logger.String("run_id", runID.String()))
	started := time.Now()
	m.record(ctx, log, func() error {
		return m.recorder.StartRun(ctx, recorder.Run{ID: runID, Kind: recorder.KindMerge, Started: started})
	})

	out, skipped, err := m.build(ctx, log)
	if err == nil {
		err = table.WriteFile(m.output, out)
	}

	sum := recorder.Summary{RunID: runID, Finished: time.Now(), Failed: skipped}
	if out != nil {
		sum.Samples = len(out.Rows)
	}
	m.record(ctx, log, func() error { return m.recorder.FinishRun(ctx, sum) })

	if err != nil {
		metrics.RecordMergeFailure(mergeFailureReason(err))
		log.Error(ctx, "merge failed", logger.Error(err))
		return err
	}

	metrics.UpdateMergeRows(len(out.Rows))
	log.Info(ctx, "merge finished",
		logger.String("output", m.output),
		logger.Int("rows", len(out.Rows)),
		logger.Int("skipped", skipped),
		logger.Duration("took", time.Since(started)),
	)
	return nil
}

func (m *MergeService) build(ctx context.Context, log logger.Logger) (*grid.Grid, int, error) {
	models, err := filepath.Glob(filepath.Join(m.slhaDir, "*.slha"))
	if err != nil {
		return nil, 0, err
	}
	if len(models) == 0 {
		return nil, 0, fmt.Errorf("%w in %s", ErrNoModelFiles, m.slhaDir)
	}

	pdgs := make([]int, len(m.masses))
	names := make([]string, len(m.masses))
	for i, mc := range m.masses {
		pdgs[i], names[i] = mc.PDG, mc.Name
	}

	var (
		points  []merge.Point
		skipped int
	)
	for _, model := range models {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		effFile := filepath.Join(m.effDir, strings.TrimSuffix(filepath.Base(model), ".slha")+".eff")
		if _, err := os.Stat(effFile); errors.Is(err, os.ErrNotExist) {
			skipped++
			metrics.RecordMergeSkipped()
			log.Warn(ctx, "efficiency file not found, skipping", logger.String("eff_file", effFile))
			continue
		}

		masses, err := slha.ReadMasses(model, pdgs)
		if err != nil {
			if errors.Is(err, slha.ErrMissingMass) || errors.Is(err, slha.ErrNoMassBlock) {
				err = fmt.Errorf("%w: %w", merge.ErrMissingMass, err)
			}
			return nil, skipped, err
		}

		g, err := table.ReadFile(effFile)
		if err != nil {
			return nil, skipped, err
		}

		metrics.RecordMergePoint()
		log.Debug(ctx, "mass point", logger.String("model", model), logger.Float64s("masses", masses))
		points = append(points, merge.Point{Name: effFile, Masses: masses, Table: g})
	}

	out, err := merge.Merge(points, names, m.effs, m.sortBy)
	return out, skipped, err
}

func (m *MergeService) record(ctx context.Context, log logger.Logger, fn func() error) {
	if err := fn(); err != nil {
		metrics.RecordRecorderError()
		log.Warn(ctx, "recorder failed", logger.Error(err))
	}
}

func mergeFailureReason(err error) string {
	switch {
	case errors.Is(err, merge.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, merge.ErrMissingMass):
		return "missing_mass"
	case errors.Is(err, merge.ErrUnknownSortColumn):
		return "sort_column"
	case errors.Is(err, merge.ErrNoPoints), errors.Is(err, ErrNoModelFiles):
		return "no_points"
	default:
		return "io"
	}
}
