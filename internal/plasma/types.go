package plasma

import (
	"math"
)

// State is the ionization-stage population vector of one impurity species,
// in m^-3. Index 0 is the neutral (ground) stage, index k the k-times-ionized
// stage, so a species with atomic number Z has Z+1 entries.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Total is the particle density summed over all stages.
func (s State) Total() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum
}

// Clamped returns a copy with negative entries replaced by zero. Adaptive
// steps can transiently push a stage density below zero; the rate model must
// never observe such values.
func (s State) Clamped() State {
	c := make(State, len(s))
	for i, v := range s {
		if v < 0 {
			c[i] = 0
		} else {
			c[i] = v
		}
	}
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NonNegative reports whether every stage density is >= 0. Terminal states
// that fail this after integration are flagged as non-physical by the scan
// drivers rather than aborting a sweep.
func (s State) NonNegative() bool {
	for _, v := range s {
		if v < 0 {
			return false
		}
	}
	return true
}

// GroundState returns a state with the full density n0 in the neutral stage
// and every ionized stage empty.
func GroundState(stages int, n0 float64) State {
	s := make(State, stages)
	s[0] = n0
	return s
}

// Conditions holds the fixed per-run plasma parameters. Drift velocities and
// the neutral background are carried through to the rate model but stay at
// zero for the scenarios this package models.
type Conditions struct {
	Te  float64   // electron temperature, eV
	Ne  float64   // electron density, m^-3
	Vi  float64   // background ion drift velocity, m/s
	Nn  float64   // neutral background density, m^-3
	Vn  float64   // neutral drift velocity, m/s
	Vzk []float64 // per-stage drift velocities, m/s; nil means all zero

	// RefuelRate is the inverse confinement time in s^-1. Zero disables
	// refuelling.
	RefuelRate float64
}

// Validate fails fast on parameters that would make a run meaningless.
func (c Conditions) Validate() error {
	if c.Te <= 0 || math.IsNaN(c.Te) {
		return ErrNonPositiveTemperature
	}
	if c.Ne <= 0 || math.IsNaN(c.Ne) {
		return ErrNonPositiveDensity
	}
	if c.RefuelRate < 0 {
		return ErrNegativeRefuelRate
	}
	return nil
}

// StageVelocities returns the per-stage drift velocity vector, expanding a
// nil Vzk into zeros of the requested length.
func (c Conditions) StageVelocities(stages int) []float64 {
	if c.Vzk != nil {
		return c.Vzk
	}
	return make([]float64, stages)
}

// Snapshot is the named diagnostic bundle emitted by a single rate-model
// evaluation. Scalar channels are stored as length-1 slices so that scalar
// and vector channels flow through the same resampling path; only the
// storage shape of the output differs.
type Snapshot map[string][]float64

// Diagnostic channel names emitted by the rate model. The core treats all of
// them as opaque except ChanDeriv and ChanPrad, which every model must emit.
const (
	ChanDeriv       = "dNzk"  // stage-density derivative, m^-3 s^-1
	ChanPrad        = "Prad"  // radiated power, W m^-3
	ChanPcool       = "Pcool" // electron cooling power, W m^-3
	ChanStageFlux   = "F_zk"  // per-stage particle flux
	ChanElecDeriv   = "dNe"   // electron density derivative
	ChanIonFlux     = "F_i"   // dominant-ion particle flux
	ChanNeutralDens = "dNn"   // neutral density derivative
	ChanNeutralFlux = "F_n"   // neutral particle flux
)

// Scalar returns the value of a width-1 channel, or 0 if absent.
func (s Snapshot) Scalar(name string) float64 {
	v, ok := s[name]
	if !ok || len(v) == 0 {
		return 0
	}
	return v[0]
}

// Width returns the number of components recorded for a channel, 0 if absent.
func (s Snapshot) Width(name string) int {
	return len(s[name])
}

// RateModel converts plasma conditions and a stage population into the
// population derivative plus a diagnostic Snapshot. The state passed to
// Evaluate is guaranteed non-negative. Implementations must be cheap and
// side-effect free: the ODE driver calls Evaluate an unbounded number of
// times per run, including step-size trials that are later rejected.
type RateModel interface {
	// Evaluate returns dState/dt and the diagnostics for the given
	// conditions. Every returned Snapshot must include ChanDeriv and
	// ChanPrad.
	Evaluate(te, ne float64, state State, vzk []float64) (State, Snapshot)

	// Stages returns the state vector length, Z+1.
	Stages() int
}
