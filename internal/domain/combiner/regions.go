// Package combiner rescales the zero-width efficiencies of one event to a
// finite decay width.
package combiner

import "fmt"

// SignalRegion is one analysis bin: a label in the event record and the
// smallest reconstructed mass it accepts.
type SignalRegion struct {
	Name    string
	MinMass float64 // GeV
}

// SignalRegionSet is the ordered catalogue of bins of an analysis.
type SignalRegionSet []SignalRegion

// DefaultSignalRegions returns the four mass-reconstruction bins of the
// reference HSCP search.
func DefaultSignalRegions() SignalRegionSet {
	return SignalRegionSet{
		{Name: "c000", MinMass: 0},
		{Name: "c100", MinMass: 100},
		{Name: "c200", MinMass: 200},
		{Name: "c300", MinMass: 300},
	}
}

// Names returns the region labels in catalogue order.
func (s SignalRegionSet) Names() []string {
	names := make([]string, len(s))
	for i, sr := range s {
		names[i] = sr.Name
	}
	return names
}

// Validate rejects empty catalogues and duplicate or blank names.
func (s SignalRegionSet) Validate() error {
	if len(s) == 0 {
		return ErrNoSignalRegions
	}
	seen := make(map[string]struct{}, len(s))
	for _, sr := range s {
		if sr.Name == "" {
			return fmt.Errorf("%w: blank name", ErrInvalidSignalRegion)
		}
		if _, dup := seen[sr.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidSignalRegion, sr.Name)
		}
		seen[sr.Name] = struct{}{}
	}
	return nil
}
