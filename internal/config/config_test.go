package config_test

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/llpbakery/effmap/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_Default(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.Default()

		convey.Convey("Then it reproduces the reference analysis", func() {
			convey.So(cfg.Analysis.SignalRegions, convey.ShouldHaveLength, 4)
			convey.So(cfg.Analysis.SignalRegions[3].MinMass, convey.ShouldEqual, 300)
			convey.So(cfg.Analysis.MassGatingFraction, convey.ShouldEqual, 0.6)
			convey.So(cfg.Analysis.EffLabels, convey.ShouldHaveLength, 10)
			convey.So(cfg.Detector.Radius, convey.ShouldEqual, 10.8)
			convey.So(cfg.Detector.HalfLength, convey.ShouldEqual, 7.4)
			convey.So(cfg.Scan.Widths, convey.ShouldResemble, []float64{0})
			convey.So(cfg.Scan.Workers, convey.ShouldEqual, runtime.NumCPU())
		})

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.ValidateScan(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"log format", func(c *config.Config) { c.LogFormat = "xml" }},
		{"no regions", func(c *config.Config) { c.Analysis.SignalRegions = nil }},
		{"duplicate region", func(c *config.Config) {
			c.Analysis.SignalRegions = append(c.Analysis.SignalRegions, c.Analysis.SignalRegions[0])
		}},
		{"region without label", func(c *config.Config) { c.Analysis.SignalRegions[0].Name = "c999" }},
		{"gating fraction", func(c *config.Config) { c.Analysis.MassGatingFraction = -1 }},
		{"trigger label", func(c *config.Config) { c.Analysis.TriggerLabel = "hlt" }},
		{"detector", func(c *config.Config) { c.Detector.Radius = 0 }},
		{"path length", func(c *config.Config) { c.Detector.PathLength = -1 }},
		{"driver", func(c *config.Config) { c.Recorder.Driver = "postgres"; c.Recorder.DSN = "x" }},
		{"dsn", func(c *config.Config) { c.Recorder.Driver = "sqlite" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateScan(t *testing.T) {
	convey.Convey("Given scan settings", t, func() {
		cfg := config.Default()

		convey.Convey("When a width is negative", func() {
			cfg.Scan.Widths = []float64{0, -1e-16}
			convey.So(errors.Is(cfg.ValidateScan(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When plots use an unknown format", func() {
			cfg.Scan.PlotDir = "plots"
			cfg.Scan.PlotFormat = "gif"
			convey.So(errors.Is(cfg.ValidateScan(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_ValidateMerge(t *testing.T) {
	convey.Convey("Given merge settings", t, func() {
		cfg := config.Default()
		cfg.Merge.MassColumns = []config.MassColumn{{Name: "mLLP", PDG: 1000015}}
		cfg.Merge.EffColumns = []config.EffColumn{{Name: "eff", Column: "c000"}}
		cfg.Merge.SortBy = "mLLP"

		convey.Convey("When complete", func() {
			convey.So(cfg.ValidateMerge(), convey.ShouldBeNil)
		})

		convey.Convey("When sorting by an unknown column", func() {
			cfg.Merge.SortBy = "width"
			convey.So(errors.Is(cfg.ValidateMerge(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a column name repeats", func() {
			cfg.Merge.EffColumns = append(cfg.Merge.EffColumns, config.EffColumn{Name: "mLLP", Column: "c100"})
			convey.So(errors.Is(cfg.ValidateMerge(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When no columns are requested", func() {
			cfg.Merge.MassColumns, cfg.Merge.EffColumns = nil, nil
			convey.So(errors.Is(cfg.ValidateMerge(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestScan_Inputs(t *testing.T) {
	convey.Convey("Given explicit files and a pattern", t, func() {
		dir := t.TempDir()
		s := config.Scan{
			Files:    []string{filepath.Join(dir, "a.lhe")},
			Patterns: []string{filepath.Join(dir, "*.lhe")},
		}
		glob := func(string) ([]string, error) {
			return []string{filepath.Join(dir, "a.lhe"), filepath.Join(dir, "b.lhe")}, nil
		}

		convey.Convey("Then duplicates are dropped in first-seen order", func() {
			in, err := s.Inputs(glob)
			convey.So(err, convey.ShouldBeNil)
			convey.So(in, convey.ShouldResemble, []string{filepath.Join(dir, "a.lhe"), filepath.Join(dir, "b.lhe")})
		})
	})
}
