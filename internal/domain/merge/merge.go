// Package merge assembles per-mass-point efficiency tables into one grid.
package merge

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/llpbakery/effmap/internal/domain/grid"
)

// Column maps an output column to a column of the efficiency tables.
type Column struct {
	Name   string
	Source string
}

// Point is one simulated model point: its masses, in mass-column order,
// and its efficiency table.
type Point struct {
	Name   string
	Masses []float64
	Table  *grid.Grid
}

// Merge emits one row per row of every point's table, prefixed by the
// point's masses, and sorts the result by sortBy with ties broken by the
// remaining columns in order.
func Merge(points []Point, massColumns []string, effColumns []Column, sortBy string) (*grid.Grid, error) {
	if len(massColumns)+len(effColumns) == 0 {
		return nil, ErrNoColumns
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	names := make([]string, 0, len(massColumns)+len(effColumns))
	names = append(names, massColumns...)
	for _, c := range effColumns {
		names = append(names, c.Name)
	}
	key := slices.Index(names, sortBy)
	if key < 0 {
		return nil, fmt.Errorf("%w: %q not in %v", ErrUnknownSortColumn, sortBy, names)
	}

	out := grid.New(names...)
	for _, pt := range points {
		if len(pt.Masses) != len(massColumns) {
			return nil, fmt.Errorf("%s: %w: got %d masses for %d columns", pt.Name, ErrMissingMass, len(pt.Masses), len(massColumns))
		}

		idx := make([]int, len(effColumns))
		for i, c := range effColumns {
			idx[i] = pt.Table.Index(c.Source)
			if idx[i] < 0 {
				return nil, fmt.Errorf("%s: %w: %q not in %v", pt.Name, ErrMissingColumn, c.Source, pt.Table.Columns)
			}
		}

		for _, src := range pt.Table.Rows {
			row := make([]float64, 0, len(names))
			row = append(row, pt.Masses...)
			for _, i := range idx {
				row = append(row, src[i])
			}
			if err := out.Append(row); err != nil {
				return nil, err
			}
		}
	}

	order := make([]int, 0, len(names))
	order = append(order, key)
	for i := range names {
		if i != key {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(out.Rows, func(a, b []float64) int {
		for _, i := range order {
			if c := cmp.Compare(a[i], b[i]); c != 0 {
				return c
			}
		}
		return 0
	})
	return out, nil
}
