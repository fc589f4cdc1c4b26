package grid_test

import (
	"errors"
	"testing"

	"github.com/llpbakery/effmap/internal/domain/grid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGrid(t *testing.T) {
	Convey("Given a grid over width and c000", t, func() {
		cols := []string{"width", "c000"}
		g := grid.New(cols...)
		cols[0] = "mutated"

		Convey("Then it owns its column names", func() {
			So(g.Columns, ShouldResemble, []string{"width", "c000"})
			So(g.Index("c000"), ShouldEqual, 1)
			So(g.Index("c100"), ShouldEqual, -1)
		})

		Convey("When appending rows", func() {
			So(g.Append([]float64{0, 0.4}), ShouldBeNil)
			So(g.Append([]float64{1e-16, 0.2}), ShouldBeNil)
			err := g.Append([]float64{1})

			Convey("Then a short row is rejected", func() {
				So(errors.Is(err, grid.ErrRowWidth), ShouldBeTrue)
				So(g.Rows, ShouldHaveLength, 2)
			})

			Convey("Then a column is read by name", func() {
				col, err := g.Column("c000")
				So(err, ShouldBeNil)
				So(col, ShouldResemble, []float64{0.4, 0.2})
				_, err = g.Column("c300")
				So(errors.Is(err, grid.ErrUnknownColumn), ShouldBeTrue)
			})
		})
	})
}
