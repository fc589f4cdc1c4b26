// Package plot draws efficiency-vs-width curves.
package plot

import (
	"errors"
	"fmt"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/llpbakery/effmap/internal/domain/scan"
)

// ErrNoPoints is returned when a table has no row with a positive width.
var ErrNoPoints = errors.New("no positive width to plot")

// Option applies a configuration option to a Curve call.
type Option func(*options)

type options struct {
	title  string
	width  vg.Length
	height vg.Length
}

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithSize sets the canvas size in inches.
func WithSize(width, height float64) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch
		}
	}
}

// Curve saves one series per signal region with error bars. The file
// format follows the extension of path. The width-0 row cannot sit on a
// log axis and is left out.
func Curve(t *scan.Table, path string, opts ...Option) error {
	o := options{width: 6 * vg.Inch, height: 4 * vg.Inch}
	for _, opt := range opts {
		opt(&o)
	}

	p := plot.New()
	p.Title.Text = o.title
	p.X.Label.Text = "Width (GeV)"
	p.Y.Label.Text = "Efficiency"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true

	for j, region := range t.Regions {
		var pts []hbook.Point2D
		for _, row := range t.Rows {
			if row.Width <= 0 {
				continue
			}
			pts = append(pts, hbook.Point2D{
				X:    row.Width,
				Y:    row.Effs[j],
				ErrY: hbook.Range{Min: row.Errs[j], Max: row.Errs[j]},
			})
		}
		if len(pts) == 0 {
			return ErrNoPoints
		}

		s := hplot.NewS2D(hbook.NewS2D(pts...), hplot.WithYErrBars(true))
		s.GlyphStyle.Color = plotutil.Color(j)
		s.GlyphStyle.Shape = plotutil.Shape(j)
		p.Add(s)
		p.Legend.Add(region, s)
	}

	if err := p.Save(o.width, o.height, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
