// Package config defines the engine configuration and its defaults.
//
// Conventions:
//   - Every section maps to one YAML mapping and one EFFMAP_<SECTION>__ env prefix.
//   - Zero values are filled from Default after loading.
//   - Validate checks what every binary needs; ValidateScan and ValidateMerge
//     add what only one of them needs.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	Analysis Analysis `koanf:"analysis"`
	Detector Detector `koanf:"detector"`
	Scan     Scan     `koanf:"scan"`
	Merge    Merge    `koanf:"merge"`
	Metrics  Metrics  `koanf:"metrics"`
	Recorder Recorder `koanf:"recorder"`
}

// SignalRegion is one analysis bin.
type SignalRegion struct {
	Name    string  `koanf:"name"`
	MinMass float64 `koanf:"min_mass"`
}

// Analysis describes the signal regions and the efficiency columns of the
// event samples.
type Analysis struct {
	SignalRegions []SignalRegion `koanf:"signal_regions"`

	// MassGatingFraction scales the particle mass before it is compared
	// with a region's threshold.
	MassGatingFraction float64 `koanf:"mass_gating_fraction"`

	TriggerLabel string `koanf:"trigger_label"`

	// EffLabels names the values that follow pdg px py pz E m in a
	// particle record, in file order.
	EffLabels []string `koanf:"eff_labels"`
}

// Detector is the cylinder used for path lengths. A positive PathLength
// replaces the geometry with a fixed distance.
type Detector struct {
	Radius     float64 `koanf:"radius"`
	HalfLength float64 `koanf:"half_length"`
	PathLength float64 `koanf:"path_length"`
}

// Scan configures effscan.
type Scan struct {
	Files    []string  `koanf:"files"`
	Patterns []string  `koanf:"patterns"`
	OutDir   string    `koanf:"out_dir"`
	Widths   []float64 `koanf:"widths"`

	// SelectPDGs keeps only these species; empty keeps every particle.
	SelectPDGs []int `koanf:"select_pdgs"`

	// Workers below one means one per CPU.
	Workers int `koanf:"workers"`

	// PlotDir enables one efficiency plot per sample when set.
	PlotDir    string `koanf:"plot_dir"`
	PlotFormat string `koanf:"plot_format"`
}

// MassColumn reads one mass from the MASS block of the model files.
type MassColumn struct {
	Name string `koanf:"name"`
	PDG  int    `koanf:"pdg"`
}

// EffColumn copies one efficiency table column into the grid.
type EffColumn struct {
	Name   string `koanf:"name"`
	Column string `koanf:"column"`
}

// Merge configures effmerge.
type Merge struct {
	EffDir      string       `koanf:"eff_dir"`
	SLHADir     string       `koanf:"slha_dir"`
	Output      string       `koanf:"output"`
	MassColumns []MassColumn `koanf:"mass_columns"`
	EffColumns  []EffColumn  `koanf:"eff_columns"`
	SortBy      string       `koanf:"sort_by"`
}

// Metrics configures the Prometheus textfile written at the end of a run.
type Metrics struct {
	Textfile string `koanf:"textfile"`
}

// Recorder configures run bookkeeping. An empty driver disables it.
type Recorder struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// Default returns the reference analysis configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Analysis: Analysis{
			SignalRegions: []SignalRegion{
				{Name: "c000", MinMass: 0},
				{Name: "c100", MinMass: 100},
				{Name: "c200", MinMass: 200},
				{Name: "c300", MinMass: 300},
			},
			MassGatingFraction: 0.6,
			TriggerLabel:       "trigger",
			EffLabels: []string{
				"trigger", "trigger_err",
				"c000", "c000_err",
				"c100", "c100_err",
				"c200", "c200_err",
				"c300", "c300_err",
			},
		},
		Detector: Detector{
			Radius:     10.8,
			HalfLength: 7.4,
		},
		Scan: Scan{
			OutDir:     "effs",
			Widths:     []float64{0},
			Workers:    runtime.NumCPU(),
			PlotFormat: "png",
		},
		Merge: Merge{
			EffDir:  "effs",
			SLHADir: "slha",
			Output:  "effMap.dat",
		},
	}
}

// applyDefaults fills zero values from Default.
func (c *Config) applyDefaults() {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if len(c.Analysis.SignalRegions) == 0 {
		c.Analysis.SignalRegions = d.Analysis.SignalRegions
	}
	if c.Analysis.MassGatingFraction == 0 {
		c.Analysis.MassGatingFraction = d.Analysis.MassGatingFraction
	}
	if c.Analysis.TriggerLabel == "" {
		c.Analysis.TriggerLabel = d.Analysis.TriggerLabel
	}
	if len(c.Analysis.EffLabels) == 0 {
		c.Analysis.EffLabels = d.Analysis.EffLabels
	}
	if c.Detector.Radius == 0 {
		c.Detector.Radius = d.Detector.Radius
	}
	if c.Detector.HalfLength == 0 {
		c.Detector.HalfLength = d.Detector.HalfLength
	}
	if c.Scan.OutDir == "" {
		c.Scan.OutDir = d.Scan.OutDir
	}
	if len(c.Scan.Widths) == 0 {
		c.Scan.Widths = d.Scan.Widths
	}
	if c.Scan.Workers < 1 {
		c.Scan.Workers = d.Scan.Workers
	}
	if c.Scan.PlotFormat == "" {
		c.Scan.PlotFormat = d.Scan.PlotFormat
	}
	if c.Merge.EffDir == "" {
		c.Merge.EffDir = d.Merge.EffDir
	}
	if c.Merge.SLHADir == "" {
		c.Merge.SLHADir = d.Merge.SLHADir
	}
	if c.Merge.Output == "" {
		c.Merge.Output = d.Merge.Output
	}
	if c.Merge.SortBy == "" && len(c.Merge.MassColumns) > 0 {
		c.Merge.SortBy = c.Merge.MassColumns[0].Name
	}
}
