// Package species holds the impurity species registry: one entry per
// supported element, carrying the atomic number and the per-stage ionization
// data the analytic rate model evaluates. A species symbol is resolved once,
// at solver construction; unknown symbols fail there and nowhere else.
package species

import (
	"fmt"
	"sort"
	"strings"

	"coronal/internal/plasma"
)

// Stage carries the ionization data for one charge state k, governing the
// transition k -> k+1. Rate-coefficient fit constants follow the Voronov
// parametrisation, with A converted to m^3/s.
type Stage struct {
	PotentialEV float64 // ionization threshold, eV
	A           float64 // m^3/s
	P           float64 // 0 or 1
	X           float64
	K           float64
}

// Species is one registry entry. A species with atomic number Z has Z
// ionization transitions and Z+1 population stages.
type Species struct {
	Symbol     string
	Name       string
	Z          int
	MassAMU    float64
	Ionization []Stage // length Z, indexed by the charge state being ionized
}

// Stages returns the population vector length, Z+1.
func (sp Species) Stages() int {
	return sp.Z + 1
}

var registry = map[string]Species{
	"h": {
		Symbol: "h", Name: "hydrogen", Z: 1, MassAMU: 1.008,
		Ionization: []Stage{
			{PotentialEV: 13.6, A: 0.291e-13, P: 0, X: 0.232, K: 0.39},
		},
	},
	"he": {
		Symbol: "he", Name: "helium", Z: 2, MassAMU: 4.003,
		Ionization: []Stage{
			{PotentialEV: 24.6, A: 0.175e-13, P: 0, X: 0.180, K: 0.35},
			{PotentialEV: 54.4, A: 0.205e-14, P: 1, X: 0.265, K: 0.25},
		},
	},
	"li": {
		Symbol: "li", Name: "lithium", Z: 3, MassAMU: 6.94,
		Ionization: []Stage{
			{PotentialEV: 5.4, A: 0.139e-12, P: 0, X: 0.438, K: 0.41},
			{PotentialEV: 75.6, A: 0.208e-14, P: 1, X: 0.555, K: 0.18},
			{PotentialEV: 122.4, A: 0.092e-14, P: 1, X: 0.489, K: 0.23},
		},
	},
	"c": {
		Symbol: "c", Name: "carbon", Z: 6, MassAMU: 12.011,
		Ionization: []Stage{
			{PotentialEV: 11.3, A: 0.685e-13, P: 0, X: 0.193, K: 0.25},
			{PotentialEV: 24.4, A: 0.186e-13, P: 1, X: 0.286, K: 0.24},
			{PotentialEV: 47.9, A: 0.635e-14, P: 1, X: 0.427, K: 0.21},
			{PotentialEV: 64.5, A: 0.150e-14, P: 1, X: 0.416, K: 0.13},
			{PotentialEV: 392.1, A: 0.299e-15, P: 1, X: 0.666, K: 0.02},
			{PotentialEV: 490.0, A: 0.123e-15, P: 1, X: 0.620, K: 0.16},
		},
	},
	"n": {
		Symbol: "n", Name: "nitrogen", Z: 7, MassAMU: 14.007,
		Ionization: []Stage{
			{PotentialEV: 14.5, A: 0.482e-13, P: 0, X: 0.0652, K: 0.42},
			{PotentialEV: 29.6, A: 0.298e-13, P: 0, X: 0.310, K: 0.30},
			{PotentialEV: 47.5, A: 0.810e-14, P: 1, X: 0.350, K: 0.24},
			{PotentialEV: 77.5, A: 0.371e-14, P: 1, X: 0.549, K: 0.18},
			{PotentialEV: 97.9, A: 0.151e-14, P: 0, X: 0.0167, K: 0.74},
			{PotentialEV: 552.1, A: 0.371e-15, P: 0, X: 0.546, K: 0.29},
			{PotentialEV: 667.0, A: 0.777e-16, P: 1, X: 0.624, K: 0.16},
		},
	},
	"o": {
		Symbol: "o", Name: "oxygen", Z: 8, MassAMU: 15.999,
		Ionization: []Stage{
			{PotentialEV: 13.6, A: 0.359e-13, P: 0, X: 0.073, K: 0.34},
			{PotentialEV: 35.1, A: 0.139e-13, P: 1, X: 0.212, K: 0.22},
			{PotentialEV: 54.9, A: 0.931e-14, P: 1, X: 0.270, K: 0.27},
			{PotentialEV: 77.4, A: 0.102e-13, P: 0, X: 0.614, K: 0.27},
			{PotentialEV: 113.9, A: 0.219e-14, P: 1, X: 0.630, K: 0.17},
			{PotentialEV: 138.1, A: 0.195e-14, P: 0, X: 0.360, K: 0.54},
			{PotentialEV: 739.3, A: 0.212e-15, P: 1, X: 0.396, K: 0.35},
			{PotentialEV: 871.4, A: 0.521e-16, P: 1, X: 0.629, K: 0.16},
		},
	},
}

// Lookup resolves a species symbol (case-insensitive) to its registry entry.
func Lookup(symbol string) (Species, error) {
	sp, ok := registry[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return Species{}, fmt.Errorf("%w: %q", plasma.ErrUnknownSpecies, symbol)
	}
	return sp, nil
}

// Symbols lists the registered species symbols in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(registry))
	for sym := range registry {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
