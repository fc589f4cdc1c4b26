package combiner

import (
	"fmt"

	"github.com/llpbakery/effmap/internal/domain/model"
)

// Default combination parameters of the reference analysis.
const (
	DefaultMassGatingFraction = 0.6
	DefaultTriggerLabel       = "trigger"
	maxParticles              = 2
)

// Survival gives the probability that a particle crosses the detector at a width.
type Survival interface {
	Probability(p *model.Particle, width float64) (float64, error)
}

// Option applies a configuration option to the Combiner.
type Option func(*Combiner)

// WithMassGatingFraction sets the factor f of the mass window: a particle
// of mass M has no reconstruction efficiency in a region with threshold T
// when M*f < T.
func WithMassGatingFraction(f float64) Option {
	return func(c *Combiner) {
		if f > 0 {
			c.gating = f
		}
	}
}

// WithTriggerLabel sets the efficiency label holding the trigger efficiency.
func WithTriggerLabel(label string) Option {
	return func(c *Combiner) {
		if label != "" {
			c.triggerLabel = label
		}
	}
}

// Probabilities is the outcome of one event at one width, aligned with the
// combiner's signal regions.
type Probabilities struct {
	Width  float64
	Values []float64
}

// Combiner turns per-particle zero-width efficiencies into the probability
// that the event fires the trigger and is reconstructed in each region.
//
// Only the trigger term is rescaled by the survival probability; the
// reconstruction term uses the zero-width efficiencies as they are.
type Combiner struct {
	regions      SignalRegionSet
	survival     Survival
	gating       float64
	triggerLabel string
}

// New creates a combiner over regions.
func New(regions SignalRegionSet, survival Survival, opts ...Option) (*Combiner, error) {
	if err := regions.Validate(); err != nil {
		return nil, err
	}
	c := &Combiner{
		regions:      append(SignalRegionSet(nil), regions...),
		survival:     survival,
		gating:       DefaultMassGatingFraction,
		triggerLabel: DefaultTriggerLabel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Regions returns the signal regions in output order.
func (c *Combiner) Regions() SignalRegionSet { return c.regions }

// Combine evaluates ev at every width.
func (c *Combiner) Combine(ev model.Event, widths []float64) ([]Probabilities, error) {
	n := len(ev)
	if n < 1 || n > maxParticles {
		return nil, fmt.Errorf("%w: %d particles (want 1 or %d)", ErrMalformedEvent, n, maxParticles)
	}

	trigger := make([]float64, n)
	online := make([][]float64, len(c.regions)) // [region][particle]
	for j := range online {
		online[j] = make([]float64, n)
	}

	for i := range ev {
		p := &ev[i]
		eff, ok := p.Eff(c.triggerLabel)
		if !ok {
			return nil, fmt.Errorf("%w %q (pdg %d, have %v)", ErrMissingEfficiency, c.triggerLabel, p.PDG, p.Labels())
		}
		trigger[i] = eff

		mass := p.InvariantMass()
		for j, sr := range c.regions {
			if mass*c.gating < sr.MinMass {
				continue
			}
			eff, ok := p.Eff(sr.Name)
			if !ok {
				return nil, fmt.Errorf("%w %q (pdg %d, have %v)", ErrMissingEfficiency, sr.Name, p.PDG, p.Labels())
			}
			online[j][i] = eff
		}
	}

	// The tag term does not depend on the width.
	tag := make([]float64, len(c.regions))
	for j := range c.regions {
		tag[j] = atLeastOne(online[j])
	}

	out := make([]Probabilities, len(widths))
	scaled := make([]float64, n)
	for w, width := range widths {
		for i := range ev {
			prob, err := c.survival.Probability(&ev[i], width)
			if err != nil {
				return nil, err
			}
			scaled[i] = trigger[i] * prob
		}
		trig := atLeastOne(scaled)

		values := make([]float64, len(c.regions))
		for j := range c.regions {
			values[j] = trig * tag[j]
		}
		out[w] = Probabilities{Width: width, Values: values}
	}
	return out, nil
}

// atLeastOne returns 1 - prod(1 - p_i) for independent probabilities.
func atLeastOne(probs []float64) float64 {
	miss := 1.0
	for _, p := range probs {
		miss *= 1.0 - p
	}
	return 1.0 - miss
}
