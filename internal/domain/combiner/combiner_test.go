package combiner_test

import (
	"errors"
	"math"
	"testing"

	"github.com/llpbakery/effmap/internal/domain/combiner"
	"github.com/llpbakery/effmap/internal/domain/model"
	"github.com/llpbakery/effmap/internal/domain/survival"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedSurvival returns the same probability for every particle at a non-zero width.
type fixedSurvival struct{ prob float64 }

func (f fixedSurvival) Probability(_ *model.Particle, width float64) (float64, error) {
	if width == 0 {
		return 1, nil
	}
	return f.prob, nil
}

func hscp(pdg int, mass, pMag float64, effs map[string]float64) model.Particle {
	return model.NewParticle(pdg, pMag, 0, 0, math.Sqrt(pMag*pMag+mass*mass), mass, effs)
}

func TestCombineSingleParticle(t *testing.T) {
	Convey("Given one 100 GeV particle with gamma*beta = 10 and an 8 m path", t, func() {
		regions := combiner.SignalRegionSet{{Name: "c000", MinMass: 0}}
		c, err := combiner.New(regions, survival.New(survival.WithFixedPathLength(8)))
		So(err, ShouldBeNil)

		ev := model.Event{hscp(1000015, 100, 1000, map[string]float64{"trigger": 0.8, "c000": 0.5})}

		Convey("When scanning widths 0, 1e-13 and 1e-12 GeV", func() {
			out, err := c.Combine(ev, []float64{0, 1e-13, 1e-12})

			Convey("Then width 0 reproduces trigger times tag", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 3)
				So(out[0].Width, ShouldEqual, 0)
				So(out[0].Values[0], ShouldAlmostEqual, 0.4, 1e-15)
			})

			Convey("Then larger widths collapse the efficiency", func() {
				So(out[1].Values[0], ShouldBeLessThan, 1e-100)
				So(out[2].Values[0], ShouldBeLessThanOrEqualTo, out[1].Values[0])
			})
		})
	})
}

func TestCombineTwoParticles(t *testing.T) {
	Convey("Given a two-particle event", t, func() {
		c, err := combiner.New(combiner.DefaultSignalRegions(), fixedSurvival{prob: 0.5})
		So(err, ShouldBeNil)

		a := hscp(1000015, 600, 800, map[string]float64{"trigger": 0.6, "c000": 0.3, "c100": 0.2, "c200": 0.1, "c300": 0.05})
		b := hscp(-1000015, 600, 300, map[string]float64{"trigger": 0.4, "c000": 0.5, "c100": 0.4, "c200": 0.3, "c300": 0.2})

		Convey("When combining at a finite width", func() {
			out, err := c.Combine(model.Event{a, b}, []float64{1e-17})
			So(err, ShouldBeNil)

			Convey("Then trigger is rescaled and tag is not", func() {
				trig := 1 - (1-0.6*0.5)*(1-0.4*0.5)
				tag := 1 - (1-0.3)*(1-0.5)
				So(out[0].Values[0], ShouldAlmostEqual, trig*tag, 1e-15)
			})
		})

		Convey("When swapping the particles", func() {
			ab, err1 := c.Combine(model.Event{a, b}, []float64{0, 1e-17})
			ba, err2 := c.Combine(model.Event{b, a}, []float64{0, 1e-17})

			Convey("Then every output is unchanged", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				for w := range ab {
					for j := range ab[w].Values {
						So(ba[w].Values[j], ShouldAlmostEqual, ab[w].Values[j], 1e-15)
					}
				}
			})
		})

		Convey("Then all outputs are probabilities", func() {
			out, err := c.Combine(model.Event{a, b}, []float64{0, 1e-18, 1e-16})
			So(err, ShouldBeNil)
			for _, row := range out {
				for _, v := range row.Values {
					So(v, ShouldBeBetweenOrEqual, 0, 1)
				}
			}
		})
	})
}

func TestMassGating(t *testing.T) {
	Convey("Given the reference regions and a 300 GeV particle", t, func() {
		c, err := combiner.New(combiner.DefaultSignalRegions(), fixedSurvival{prob: 1})
		So(err, ShouldBeNil)
		effs := map[string]float64{"trigger": 1, "c000": 0.9, "c100": 0.8, "c200": 0.7, "c300": 0.6}
		ev := model.Event{hscp(1000015, 300, 500, effs)}

		Convey("When 0.6*M = 180 GeV", func() {
			out, err := c.Combine(ev, []float64{0})
			So(err, ShouldBeNil)

			Convey("Then regions with threshold above 180 GeV get nothing", func() {
				So(out[0].Values[0], ShouldAlmostEqual, 0.9, 1e-15)
				So(out[0].Values[1], ShouldAlmostEqual, 0.8, 1e-15)
				So(out[0].Values[2], ShouldEqual, 0)
				So(out[0].Values[3], ShouldEqual, 0)
			})
		})

		Convey("When the gating fraction is raised to 1", func() {
			wide, err := combiner.New(combiner.DefaultSignalRegions(), fixedSurvival{prob: 1}, combiner.WithMassGatingFraction(1))
			So(err, ShouldBeNil)
			out, err := wide.Combine(ev, []float64{0})
			So(err, ShouldBeNil)

			Convey("Then the 300 GeV region opens up", func() {
				So(out[0].Values[2], ShouldAlmostEqual, 0.7, 1e-15)
				So(out[0].Values[3], ShouldAlmostEqual, 0.6, 1e-15)
			})
		})

		Convey("When a gated region has no efficiency in the record", func() {
			partial := model.Event{hscp(1000015, 300, 500, map[string]float64{"trigger": 1, "c000": 0.9, "c100": 0.8})}
			_, err := c.Combine(partial, []float64{0})

			Convey("Then the missing labels are never read", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestCombineErrors(t *testing.T) {
	Convey("Given a combiner", t, func() {
		c, err := combiner.New(combiner.DefaultSignalRegions(), fixedSurvival{prob: 1}, combiner.WithTriggerLabel("trg"))
		So(err, ShouldBeNil)
		effs := map[string]float64{"trg": 1, "c000": 1, "c100": 1, "c200": 1, "c300": 1}
		p := hscp(1000015, 1000, 500, effs)

		Convey("When the event is empty", func() {
			_, err := c.Combine(model.Event{}, []float64{0})
			So(errors.Is(err, combiner.ErrMalformedEvent), ShouldBeTrue)
		})

		Convey("When the event has three particles", func() {
			_, err := c.Combine(model.Event{p, p, p}, []float64{0})
			So(errors.Is(err, combiner.ErrMalformedEvent), ShouldBeTrue)
		})

		Convey("When the trigger label is missing", func() {
			bad := hscp(1000015, 1000, 500, map[string]float64{"trigger": 1})
			_, err := c.Combine(model.Event{bad}, []float64{0})
			So(errors.Is(err, combiner.ErrMissingEfficiency), ShouldBeTrue)
		})

		Convey("When the survival model fails", func() {
			strict, err := combiner.New(combiner.DefaultSignalRegions(), survival.New(), combiner.WithTriggerLabel("trg"))
			So(err, ShouldBeNil)
			massless := model.NewParticle(1000015, 0, 0, 0, 0, 0, effs)
			_, err = strict.Combine(model.Event{massless}, []float64{1e-16})
			So(errors.Is(err, survival.ErrNonPositiveMass), ShouldBeTrue)
		})
	})

	Convey("Given invalid catalogues", t, func() {
		_, err := combiner.New(nil, fixedSurvival{})
		So(errors.Is(err, combiner.ErrNoSignalRegions), ShouldBeTrue)

		_, err = combiner.New(combiner.SignalRegionSet{{Name: "a"}, {Name: "a"}}, fixedSurvival{})
		So(errors.Is(err, combiner.ErrInvalidSignalRegion), ShouldBeTrue)
	})
}
