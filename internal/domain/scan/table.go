// Package scan averages rescaled event efficiencies over a sample for a grid
// of trial widths.
package scan

import "github.com/llpbakery/effmap/internal/domain/grid"

// Row is the mean efficiency and its error per signal region at one width.
type Row struct {
	Width float64
	Effs  []float64
	Errs  []float64
}

// Table is the efficiency-vs-width curve of one sample. Rows are sorted by
// ascending width.
type Table struct {
	Regions []string
	Rows    []Row
	// Events is the number of events that entered the average; Skipped the
	// number dropped because no selected particle was left.
	Events  int
	Skipped int
}

// Columns returns the persisted column names: width, the regions, then
// one <region>_err per region.
func (t *Table) Columns() []string {
	cols := make([]string, 0, 1+2*len(t.Regions))
	cols = append(cols, "width")
	cols = append(cols, t.Regions...)
	for _, r := range t.Regions {
		cols = append(cols, r+"_err")
	}
	return cols
}

// Values flattens the rows in Columns order.
func (t *Table) Values() [][]float64 {
	out := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		v := make([]float64, 0, 1+len(row.Effs)+len(row.Errs))
		v = append(v, row.Width)
		v = append(v, row.Effs...)
		v = append(v, row.Errs...)
		out[i] = v
	}
	return out
}

// Grid lays the table out as width, regions, errors.
func (t *Table) Grid() *grid.Grid {
	return &grid.Grid{Columns: t.Columns(), Rows: t.Values()}
}
