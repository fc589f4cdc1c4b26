package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/llpbakery/effmap/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "effmap.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearConfigEnvVars unsets every variable the loader reads and restores
// them when the test ends.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvConfigPath, "EFFMAP_SCAN__WORKERS", "EFFMAP_SCAN__OUT_DIR", "EFFMAP_LOG_FORMAT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.Analysis.TriggerLabel, convey.ShouldEqual, "trigger")
				convey.So(cfg.Scan.OutDir, convey.ShouldEqual, "effs")
			})
		})

		convey.Convey("When loading a YAML file", func() {
			path := createTempConfigFile(t, `
log_level: debug
analysis:
  signal_regions:
    - name: sr1
      min_mass: 50
  mass_gating_fraction: 0.8
  trigger_label: trg
  eff_labels: [trg, trg_err, sr1, sr1_err]
detector:
  path_length: 8
scan:
  widths: [0, 1.0e-16, 1.0e-15]
  select_pdgs: [1000015, -1000015]
  workers: 3
merge:
  mass_columns:
    - {name: mLLP, pdg: 1000015}
  eff_columns:
    - {name: eff, column: sr1}
`)
			cfg, err := config.Load(ctx, path)

			convey.Convey("Then file values replace the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Analysis.SignalRegions, convey.ShouldResemble, []config.SignalRegion{{Name: "sr1", MinMass: 50}})
				convey.So(cfg.Analysis.MassGatingFraction, convey.ShouldEqual, 0.8)
				convey.So(cfg.Detector.PathLength, convey.ShouldEqual, 8)
				convey.So(cfg.Detector.Radius, convey.ShouldEqual, 10.8)
				convey.So(cfg.Scan.Widths, convey.ShouldResemble, []float64{0, 1e-16, 1e-15})
				convey.So(cfg.Scan.SelectPDGs, convey.ShouldResemble, []int{1000015, -1000015})
				convey.So(cfg.Scan.Workers, convey.ShouldEqual, 3)
			})

			convey.Convey("Then sort_by defaults to the first mass column", func() {
				convey.So(cfg.Merge.SortBy, convey.ShouldEqual, "mLLP")
				convey.So(cfg.ValidateMerge(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When environment variables are set", func() {
			path := createTempConfigFile(t, "scan:\n  workers: 3\n")
			t.Setenv(config.EnvConfigPath, path)
			t.Setenv("EFFMAP_SCAN__WORKERS", "16")
			t.Setenv("EFFMAP_SCAN__OUT_DIR", "/tmp/effs")
			t.Setenv("EFFMAP_LOG_FORMAT", "json")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then they override the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Scan.Workers, convey.ShouldEqual, 16)
				convey.So(cfg.Scan.OutDir, convey.ShouldEqual, "/tmp/effs")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the file is invalid", func() {
			path := createTempConfigFile(t, "log_level: loud\n")
			_, err := config.Load(ctx, path)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
