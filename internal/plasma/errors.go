package plasma

import (
	"errors"
	"fmt"
)

// Configuration errors. All of them fail a run before any integration work
// starts.
var (
	// ErrUnknownSpecies indicates a species symbol with no registry entry.
	ErrUnknownSpecies = errors.New("plasma: unknown species symbol")

	// ErrNonPositiveTemperature indicates Te <= 0 eV.
	ErrNonPositiveTemperature = errors.New("plasma: electron temperature must be positive")

	// ErrNonPositiveDensity indicates Ne <= 0 m^-3.
	ErrNonPositiveDensity = errors.New("plasma: electron density must be positive")

	// ErrNegativeRefuelRate indicates a refuelling rate below zero.
	ErrNegativeRefuelRate = errors.New("plasma: refuelling rate must be >= 0")

	// ErrEmptyTimeGrid indicates an output grid with no entries.
	ErrEmptyTimeGrid = errors.New("plasma: output time grid is empty")

	// ErrNonIncreasingTimeGrid indicates an output grid that is not strictly
	// increasing.
	ErrNonIncreasingTimeGrid = errors.New("plasma: output time grid must be strictly increasing")

	// ErrStateDimension indicates an initial state whose length does not
	// match the species' Z+1 stages.
	ErrStateDimension = errors.New("plasma: state length does not match stage count")
)

// Integration failure causes.
var (
	// ErrStepUnderflow indicates the adaptive step fell below the minimum
	// before meeting tolerance.
	ErrStepUnderflow = errors.New("plasma: adaptive step below minimum")

	// ErrEvalBudget indicates the evaluation budget was exhausted before the
	// final output time.
	ErrEvalBudget = errors.New("plasma: evaluation budget exhausted")

	// ErrNonFiniteDerivative indicates the rate model produced NaN or Inf.
	ErrNonFiniteDerivative = errors.New("plasma: non-finite derivative")
)

// IntegrationError reports a failed integration run together with the
// conditions that produced it, so a scan driver can attribute the failure to
// a grid point. It never wraps a partially filled result.
type IntegrationError struct {
	Te         float64
	Ne         float64
	RefuelRate float64
	Time       float64 // internal solver time reached
	Evals      int     // rate-model evaluations performed
	Err        error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed at t=%.3e (Te=%.3e eV, Ne=%.3e m^-3, refuel=%.3e /s, evals=%d): %v",
		e.Time, e.Te, e.Ne, e.RefuelRate, e.Evals, e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}
