package app

import (
	"github.com/llpbakery/effmap/internal/config"
	"github.com/llpbakery/effmap/internal/domain/combiner"
	"github.com/llpbakery/effmap/internal/domain/merge"
	"github.com/llpbakery/effmap/internal/domain/scan"
	"github.com/llpbakery/effmap/internal/domain/survival"
)

// NewAggregator builds the survival model, combiner and aggregator
// described by cfg.
func NewAggregator(cfg *config.Config) (*scan.Aggregator, error) {
	regions := make(combiner.SignalRegionSet, len(cfg.Analysis.SignalRegions))
	for i, sr := range cfg.Analysis.SignalRegions {
		regions[i] = combiner.SignalRegion{Name: sr.Name, MinMass: sr.MinMass}
	}

	model := survival.New(
		survival.WithDetector(survival.Detector{Radius: cfg.Detector.Radius, HalfLength: cfg.Detector.HalfLength}),
		survival.WithFixedPathLength(cfg.Detector.PathLength),
	)

	c, err := combiner.New(regions, model,
		combiner.WithMassGatingFraction(cfg.Analysis.MassGatingFraction),
		combiner.WithTriggerLabel(cfg.Analysis.TriggerLabel),
	)
	if err != nil {
		return nil, err
	}
	return scan.New(c, scan.WithSelectPDGs(cfg.Scan.SelectPDGs...)), nil
}

// MergeColumns converts the configured merge columns.
func MergeColumns(cfg config.Merge) ([]MassColumn, []merge.Column) {
	masses := make([]MassColumn, len(cfg.MassColumns))
	for i, mc := range cfg.MassColumns {
		masses[i] = MassColumn{Name: mc.Name, PDG: mc.PDG}
	}
	effs := make([]merge.Column, len(cfg.EffColumns))
	for i, ec := range cfg.EffColumns {
		effs[i] = merge.Column{Name: ec.Name, Source: ec.Column}
	}
	return masses, effs
}
