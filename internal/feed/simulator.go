package feed

import "math/rand/v2"

// DefaultVolatility is the per-tick fractional move magnitude for simulated
// assets.
const DefaultVolatility = 0.008

// Simulator produces a random walk with a slight upward drift so simulated
// assets behave like thinly-traded crypto rather than pure noise.
type Simulator struct {
	volatility float64
	rand       *rand.Rand
}

// NewSimulator creates a simulator. volatility <= 0 selects the default; a
// nil source uses the global generator's seeding.
func NewSimulator(volatility float64, src rand.Source) *Simulator {
	if volatility <= 0 {
		volatility = DefaultVolatility
	}
	s := &Simulator{volatility: volatility}
	if src != nil {
		s.rand = rand.New(src)
	}
	return s
}

// Step advances one price by a single random-walk increment. The 0.495
// offset skews the drift slightly positive.
func (s *Simulator) Step(price float64) float64 {
	if price <= 0 {
		return price
	}
	var u float64
	if s.rand != nil {
		u = s.rand.Float64()
	} else {
		u = rand.Float64()
	}
	drift := (u - 0.495) * s.volatility
	return price * (1 + drift)
}
