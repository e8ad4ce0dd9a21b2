package integrate

import "coronal/internal/plasma"

// Refuelling exchanges particles with an external reservoir at a fixed
// inverse dwell time: the whole population re-enters as ground-stage
// neutrals while every stage loses density in proportion to its share.
// Injection and removal cancel, so refuelling redistributes the population
// across stages without changing the total.
type Refuelling struct {
	Rate float64 // inverse dwell time, 1/s; zero disables
}

// Adjust adds the refuelling terms to deriv in place, given the clamped
// state the derivative was evaluated at. It reports whether deriv changed.
func (r Refuelling) Adjust(deriv, state plasma.State) bool {
	if r.Rate == 0 {
		return false
	}
	total := state.Total()
	deriv[0] += total * r.Rate
	for k, nk := range state {
		deriv[k] -= r.Rate * nk
	}
	return true
}
