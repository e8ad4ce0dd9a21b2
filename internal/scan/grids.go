package scan

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultTeConst is the fixed electron temperature of a density sweep, in eV.
const DefaultTeConst = 50.0

// DefaultTimes returns the standard output time grid, 200 points log-spaced
// over 1e-6 s to 1e2 s.
func DefaultTimes() []float64 {
	return floats.LogSpan(make([]float64, 200), 1e-6, 1e2)
}

// DefaultTe returns the standard temperature axis, 100 points log-spaced
// over roughly 0.2 eV to 9.8 keV.
func DefaultTe() []float64 {
	return floats.LogSpan(make([]float64, 100), math.Pow(10, -0.69), math.Pow(10, 3.99))
}

// DefaultNe returns the standard density axis for density sweeps, 100 points
// log-spaced over 10^13.7 m^-3 to 10^21.3 m^-3.
func DefaultNe() []float64 {
	return floats.LogSpan(make([]float64, 100), math.Pow(10, 13.7), math.Pow(10, 21.3))
}

// DefaultNeList returns the coarse density axis of a nested temperature by
// density sweep, one point per decade.
func DefaultNeList() []float64 {
	return []float64{1e16, 1e17, 1e18, 1e19, 1e20, 1e21}
}
