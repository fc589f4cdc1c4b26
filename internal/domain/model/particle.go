// Package model contains the particle and event types shared by the
// efficiency engine and its readers.
package model

import (
	"math"
	"slices"

	"go-hep.org/x/hep/fmom"
	"golang.org/x/exp/constraints"
)

// MaxRapidity is returned by Eta for particles travelling exactly along the
// beam axis, where the pseudorapidity diverges.
const MaxRapidity = 1e30

// Particle is one long-lived candidate of a simulated event.
type Particle struct {
	PDG int
	Mom fmom.PxPyPzE // GeV
	// Mass is the rest mass in GeV as written by the generator. Zero means
	// unknown and InvariantMass falls back to the four-momentum.
	Mass float64
	// Effs holds the zero-width efficiencies keyed by label (trigger, c000, ...).
	Effs map[string]float64
}

// NewParticle builds a particle from its generator record.
func NewParticle(pdg int, px, py, pz, e, mass float64, effs map[string]float64) Particle {
	return Particle{
		PDG:  pdg,
		Mom:  fmom.NewPxPyPzE(px, py, pz, e),
		Mass: mass,
		Effs: effs,
	}
}

// P returns the magnitude of the three-momentum.
func (p *Particle) P() float64 {
	px, py, pz := p.Mom.Px(), p.Mom.Py(), p.Mom.Pz()
	return math.Sqrt(px*px + py*py + pz*pz)
}

// Eta returns the pseudorapidity. A particle with |p| == |pz| gets
// MaxRapidity so that geometry code always sees a finite number.
func (p *Particle) Eta() float64 {
	pmom := p.P()
	pz := p.Mom.Pz()
	if pmom == math.Abs(pz) {
		return MaxRapidity
	}
	return 0.5 * math.Log((pmom+pz)/(pmom-pz))
}

// InvariantMass returns the generator mass when known, else the Minkowski
// norm of the four-momentum.
func (p *Particle) InvariantMass() float64 {
	if p.Mass > 0 {
		return p.Mass
	}
	return p.Mom.M()
}

// Eff returns the zero-width efficiency stored under label.
func (p *Particle) Eff(label string) (float64, bool) {
	v, ok := p.Effs[label]
	return v, ok
}

// Labels lists the stored efficiency labels in sorted order.
func (p *Particle) Labels() []string {
	return sortedKeys(p.Effs)
}

func sortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
