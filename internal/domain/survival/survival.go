// Package survival computes the probability that a long-lived particle
// crosses the sensitive detector volume before decaying.
package survival

import (
	"fmt"
	"math"

	"github.com/llpbakery/effmap/internal/domain/model"
)

// HbarC converts a width in GeV into an inverse length in metres.
const HbarC = 1.975e-16 // GeV m

// Reference detector dimensions in metres.
const (
	defaultRadius     = 10.8
	defaultHalfLength = 7.4
)

// Detector approximates the sensitive volume as a cylinder.
type Detector struct {
	Radius     float64 // barrel radius b, m
	HalfLength float64 // endcap half-length h, m
}

// DefaultDetector returns the reference cylinder.
func DefaultDetector() Detector {
	return Detector{Radius: defaultRadius, HalfLength: defaultHalfLength}
}

// PathLength returns the flight distance to the edge of the cylinder for a
// particle of pseudorapidity eta.
func (d Detector) PathLength(eta float64) float64 {
	thetaMax := math.Atan(d.HalfLength / d.Radius)
	theta := 2.0 * math.Atan(math.Exp(-math.Abs(eta)))
	if theta < thetaMax {
		return d.Radius / math.Cos(theta)
	}
	return d.HalfLength / math.Sin(theta)
}

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithDetector replaces the reference detector geometry.
func WithDetector(d Detector) Option {
	return func(m *Model) {
		if d.Radius > 0 && d.HalfLength > 0 {
			m.detector = d
		}
	}
}

// WithFixedPathLength bypasses the geometry and uses the same flight
// distance (m) for every particle. Non-positive values keep the geometry.
func WithFixedPathLength(length float64) Option {
	return func(m *Model) {
		if length > 0 {
			m.pathLength = length
		}
	}
}

// Model evaluates the exponential decay law in the lab frame.
type Model struct {
	detector   Detector
	pathLength float64
}

// New creates a survival model with the reference detector.
func New(opts ...Option) *Model {
	m := &Model{detector: DefaultDetector()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Detector returns the geometry in use.
func (m *Model) Detector() Detector { return m.detector }

// FixedPathLength returns the fixed flight distance, zero when geometry is used.
func (m *Model) FixedPathLength() float64 { return m.pathLength }

// PathLength returns the flight distance the model uses for p.
func (m *Model) PathLength(p *model.Particle) float64 {
	if m.pathLength > 0 {
		return m.pathLength
	}
	return m.detector.PathLength(p.Eta())
}

// Probability returns exp(-L*width/(hbar*c*gamma*beta)) for p. A zero width
// is the stable limit and always yields exactly 1. A particle at rest has no
// lab-frame decay length and fails at any other width.
func (m *Model) Probability(p *model.Particle, width float64) (float64, error) {
	if width < 0 || math.IsNaN(width) {
		return 0, fmt.Errorf("%w: %g", ErrNegativeWidth, width)
	}
	mass := p.InvariantMass()
	if !(mass > 0) {
		return 0, fmt.Errorf("%w: pdg %d mass %g", ErrNonPositiveMass, p.PDG, mass)
	}
	if width == 0 {
		return 1, nil
	}

	pmom := p.P()
	if pmom == 0 {
		return 0, fmt.Errorf("%w: pdg %d width %g", ErrAtRest, p.PDG, width)
	}
	gammaBeta := pmom / mass
	x := m.PathLength(p) * width / HbarC
	return math.Exp(-x / gammaBeta), nil
}
