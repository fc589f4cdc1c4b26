// Package grid holds named float columns: the in-memory form of efficiency
// tables and merged efficiency maps.
package grid

import (
	"fmt"
	"slices"
)

// Grid is a rectangular table of float columns.
type Grid struct {
	Columns []string
	Rows    [][]float64
}

// New returns an empty grid with the given columns.
func New(columns ...string) *Grid {
	return &Grid{Columns: slices.Clone(columns)}
}

// Index returns the position of a column, or -1.
func (g *Grid) Index(name string) int {
	return slices.Index(g.Columns, name)
}

// Append adds one row. The row must have one value per column.
func (g *Grid) Append(row []float64) error {
	if len(row) != len(g.Columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowWidth, len(row), len(g.Columns))
	}
	g.Rows = append(g.Rows, row)
	return nil
}

// Column returns a copy of every value in a named column.
func (g *Grid) Column(name string) ([]float64, error) {
	idx := g.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]float64, len(g.Rows))
	for i, row := range g.Rows {
		out[i] = row[idx]
	}
	return out, nil
}
