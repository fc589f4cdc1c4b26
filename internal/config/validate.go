package config

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	logLevels   = []string{"debug", "info", "warn", "warning", "error"}
	logFormats  = []string{"text", "json"}
	plotFormats = []string{"png", "svg", "pdf", "eps"}
	drivers     = []string{"mysql", "sqlite"}
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the sections shared by every binary.
func (c *Config) Validate() error {
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		return invalid("log_level %q", c.LogLevel)
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return invalid("log_format %q", c.LogFormat)
	}

	a := c.Analysis
	if len(a.SignalRegions) == 0 {
		return invalid("analysis.signal_regions is empty")
	}
	seen := make(map[string]bool, len(a.SignalRegions))
	for _, sr := range a.SignalRegions {
		if sr.Name == "" {
			return invalid("signal region without a name")
		}
		if seen[sr.Name] {
			return invalid("signal region %q listed twice", sr.Name)
		}
		seen[sr.Name] = true
		if !slices.Contains(a.EffLabels, sr.Name) {
			return invalid("signal region %q is not in analysis.eff_labels", sr.Name)
		}
	}
	if a.MassGatingFraction <= 0 {
		return invalid("analysis.mass_gating_fraction must be positive, got %g", a.MassGatingFraction)
	}
	if !slices.Contains(a.EffLabels, a.TriggerLabel) {
		return invalid("trigger label %q is not in analysis.eff_labels", a.TriggerLabel)
	}

	d := c.Detector
	if d.Radius <= 0 || d.HalfLength <= 0 {
		return invalid("detector radius and half_length must be positive")
	}
	if d.PathLength < 0 {
		return invalid("detector.path_length must not be negative")
	}

	if c.Recorder.Driver != "" {
		if !slices.Contains(drivers, c.Recorder.Driver) {
			return invalid("recorder.driver %q", c.Recorder.Driver)
		}
		if c.Recorder.DSN == "" {
			return invalid("recorder.dsn is required with driver %q", c.Recorder.Driver)
		}
	}
	return nil
}

// ValidateScan checks the scan section.
func (c *Config) ValidateScan() error {
	s := c.Scan
	if s.OutDir == "" {
		return invalid("scan.out_dir is empty")
	}
	if len(s.Widths) == 0 {
		return invalid("scan.widths is empty")
	}
	for _, w := range s.Widths {
		if w < 0 || math.IsNaN(w) {
			return invalid("scan.widths holds %g", w)
		}
	}
	if s.PlotDir != "" && !slices.Contains(plotFormats, s.PlotFormat) {
		return invalid("scan.plot_format %q", s.PlotFormat)
	}
	return nil
}

// ValidateMerge checks the merge section.
func (c *Config) ValidateMerge() error {
	m := c.Merge
	if m.EffDir == "" || m.SLHADir == "" || m.Output == "" {
		return invalid("merge.eff_dir, merge.slha_dir and merge.output are required")
	}
	if len(m.MassColumns)+len(m.EffColumns) == 0 {
		return invalid("merge has no mass_columns or eff_columns")
	}

	names := make([]string, 0, len(m.MassColumns)+len(m.EffColumns))
	for _, mc := range m.MassColumns {
		names = append(names, mc.Name)
	}
	for _, ec := range m.EffColumns {
		if ec.Column == "" {
			return invalid("eff column %q has no source column", ec.Name)
		}
		names = append(names, ec.Name)
	}
	for i, n := range names {
		if n == "" {
			return invalid("merge column %d has no name", i)
		}
		if slices.Index(names, n) != i {
			return invalid("merge column %q listed twice", n)
		}
	}
	if !slices.Contains(names, m.SortBy) {
		return invalid("merge.sort_by %q is not an output column", m.SortBy)
	}
	return nil
}

// Inputs expands Scan.Files and Scan.Patterns into a list of sample
// paths without duplicates, keeping first-seen order.
func (s Scan) Inputs(glob func(string) ([]string, error)) ([]string, error) {
	out := make([]string, 0, len(s.Files))
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, f := range s.Files {
		add(f)
	}
	for _, pat := range s.Patterns {
		matches, err := glob(pat)
		if err != nil {
			return nil, invalid("scan.patterns %q: %v", pat, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}
