package model

// Event is the ordered list of long-lived candidates of one collision.
type Event []Particle

// Select returns the particles whose PDG code is in pdgs. A nil or empty set
// keeps every particle. The receiver is not modified.
func (e Event) Select(pdgs map[int]struct{}) Event {
	if len(pdgs) == 0 {
		return e
	}
	kept := make(Event, 0, len(e))
	for _, p := range e {
		if _, ok := pdgs[p.PDG]; ok {
			kept = append(kept, p)
		}
	}
	return kept
}
