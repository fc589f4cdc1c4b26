package scan

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/llpbakery/effmap/internal/domain/combiner"
	"github.com/llpbakery/effmap/internal/domain/model"
)

// Combiner evaluates one event at every width.
type Combiner interface {
	Regions() combiner.SignalRegionSet
	Combine(ev model.Event, widths []float64) ([]combiner.Probabilities, error)
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithSelectPDGs keeps only particles with these PDG codes.
func WithSelectPDGs(pdgs ...int) Option {
	return func(a *Aggregator) {
		if len(pdgs) == 0 {
			return
		}
		a.selected = make(map[int]struct{}, len(pdgs))
		for _, pdg := range pdgs {
			a.selected[pdg] = struct{}{}
		}
	}
}

// Aggregator drives a Combiner over a whole sample.
type Aggregator struct {
	combiner Combiner
	selected map[int]struct{}
}

// New creates an aggregator.
func New(c Combiner, opts ...Option) *Aggregator {
	a := &Aggregator{combiner: c}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Scan averages the rescaled efficiencies of events at each width.
//
// With e_i the value of event i in a region, the table holds sum(e_i)/N and
// sqrt(sum(e_i^2))/N, N being the number of events with selected particles.
// Any event the combiner rejects fails the whole sample.
func (a *Aggregator) Scan(ctx context.Context, events []model.Event, widths []float64) (*Table, error) {
	if len(widths) == 0 {
		return nil, ErrNoWidths
	}

	regions := a.combiner.Regions().Names()
	sums := newGrid(len(widths), len(regions))
	sumSq := newGrid(len(widths), len(regions))

	n, skipped := 0, 0
	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan interrupted at event %d: %w", i, err)
		}

		ev = ev.Select(a.selected)
		if len(ev) == 0 {
			skipped++
			continue
		}

		probs, err := a.combiner.Combine(ev, widths)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		for w, p := range probs {
			for j, v := range p.Values {
				sums[w][j] += v
				sumSq[w][j] += v * v
			}
		}
		n++
	}

	if n == 0 {
		return nil, fmt.Errorf("%w: %d events read, %d without selected particles", ErrNoEvents, len(events), skipped)
	}

	table := &Table{
		Regions: regions,
		Rows:    make([]Row, len(widths)),
		Events:  n,
		Skipped: skipped,
	}
	norm := float64(n)
	for w, width := range widths {
		row := Row{
			Width: width,
			Effs:  make([]float64, len(regions)),
			Errs:  make([]float64, len(regions)),
		}
		for j := range regions {
			row.Effs[j] = sums[w][j] / norm
			row.Errs[j] = math.Sqrt(sumSq[w][j]) / norm
		}
		table.Rows[w] = row
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Width < table.Rows[j].Width
	})
	return table, nil
}

func newGrid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		g[i] = make([]float64, cols)
	}
	return g
}
