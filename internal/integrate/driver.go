package integrate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"coronal/internal/plasma"
)

// ErrUnknownMethod indicates a stepper name with no implementation.
var ErrUnknownMethod = errors.New("integrate: unknown method")

// Stepper method names accepted by StepperFor.
const (
	MethodRosenbrock = "rosenbrock"
	MethodRK45       = "rk45"
)

// StepperFor resolves a configured method name. The empty string selects the
// Rosenbrock stepper, which handles the stiff collisional timescales of
// coronal problems at output-scale steps.
func StepperFor(name string) (Stepper, error) {
	switch name {
	case "", MethodRosenbrock:
		return NewRosenbrock(), nil
	case MethodRK45:
		return NewRK45(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// DerivFunc is the derivative closure handed to the driver. The integrator
// builds it so that every call clamps the state, evaluates the rate model,
// applies refuelling and appends to the run's evaluation log; the driver only
// sees dState/dt.
type DerivFunc func(t float64, state plasma.State) plasma.State

// StepTrial is one attempted step. ErrRatio is the scaled error estimate
// divided by the tolerance; values above 1 (or NaN) reject the trial.
type StepTrial struct {
	State    plasma.State
	Deriv    plasma.State
	ErrRatio float64
}

// Stepper advances a single trial step. deriv must equal f(t, state); the
// driver supplies it so first-same-as-last schemes reuse the endpoint
// derivative of the previous accepted step.
type Stepper interface {
	Name() string

	// Order sets the step-size control exponents.
	Order() int

	Step(f DerivFunc, t, h, tol float64, state, deriv plasma.State) StepTrial
}

// Driver is the adaptive stepping loop shared by all steppers: trial a step,
// accept or reject on the error estimate, rescale, and interpolate accepted
// spans onto the caller's output grid. It never prints; failures come back
// as IntegrationError values for the integrator to attribute.
type Driver struct {
	Stepper  Stepper
	Tol      float64 // relative error tolerance
	MaxEvals int     // derivative evaluation budget per run
	MinStep  float64 // absolute step floor

	safety   float64
	minScale float64
	maxScale float64
}

func NewDriver(st Stepper) *Driver {
	return &Driver{
		Stepper:  st,
		Tol:      1e-6,
		MaxEvals: 200000,
		MinStep:  1e-16,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Solve integrates f from outputTimes[0] across the whole grid, returning one
// state row per output time plus the accounting the resampler needs to align
// log entries with rows. On failure no partial grid is returned.
func (d *Driver) Solve(ctx context.Context, f DerivFunc, initial plasma.State, outputTimes []float64) ([]plasma.State, plasma.StepAccounting, error) {
	n := len(outputTimes)
	rows := make([]plasma.State, n)
	acct := plasma.StepAccounting{
		EvalCount:    make([]int, n),
		InternalTime: make([]float64, n),
	}

	evals := 0
	call := func(t float64, s plasma.State) plasma.State {
		evals++
		return f(t, s)
	}

	t := outputTimes[0]
	x := initial.Clone()
	deriv := call(t, x)
	if !deriv.IsValid() {
		return nil, plasma.StepAccounting{}, &plasma.IntegrationError{Time: t, Evals: evals, Err: plasma.ErrNonFiniteDerivative}
	}
	rows[0] = x.Clone()
	acct.EvalCount[0] = evals
	acct.InternalTime[0] = t

	next := 1
	if next >= n {
		return rows, acct, nil
	}

	tEnd := outputTimes[n-1]
	h := outputTimes[1] - outputTimes[0]
	order := float64(d.Stepper.Order())

	for next < n {
		select {
		case <-ctx.Done():
			return nil, plasma.StepAccounting{}, ctx.Err()
		default:
		}
		if evals >= d.MaxEvals {
			return nil, plasma.StepAccounting{}, &plasma.IntegrationError{Time: t, Evals: evals, Err: plasma.ErrEvalBudget}
		}

		last := false
		if t+h >= tEnd {
			h = tEnd - t
			last = true
		}
		if t+h == t {
			return nil, plasma.StepAccounting{}, &plasma.IntegrationError{Time: t, Evals: evals, Err: plasma.ErrStepUnderflow}
		}

		trial := d.Stepper.Step(call, t, h, d.Tol, x, deriv)
		ratio := trial.ErrRatio

		if ratio <= 1 && trial.State.IsValid() && trial.Deriv.IsValid() {
			tNew := t + h
			if last {
				tNew = tEnd
			}
			for next < n && outputTimes[next] <= tNew {
				rows[next] = hermite(t, x, deriv, tNew, trial.State, trial.Deriv, outputTimes[next])
				acct.EvalCount[next] = evals
				acct.InternalTime[next] = tNew
				next++
			}
			x, deriv, t = trial.State, trial.Deriv, tNew
			if ratio > 0 {
				h *= math.Min(d.maxScale, d.safety*math.Pow(ratio, -1/order))
			} else {
				h *= d.maxScale
			}
			continue
		}

		nonFinite := math.IsNaN(ratio) || math.IsInf(ratio, 0) || !trial.State.IsValid() || !trial.Deriv.IsValid()
		if nonFinite {
			h *= d.minScale
		} else {
			h *= math.Max(d.minScale, d.safety*math.Pow(ratio, -1/(order-1)))
		}
		if h < d.MinStep {
			cause := plasma.ErrStepUnderflow
			if nonFinite {
				cause = plasma.ErrNonFiniteDerivative
			}
			return nil, plasma.StepAccounting{}, &plasma.IntegrationError{Time: t, Evals: evals, Err: cause}
		}
	}

	return rows, acct, nil
}

// hermite evaluates the cubic interpolant through (t0, x0) and (t1, x1) with
// endpoint derivatives d0, d1 at time s in [t0, t1].
func hermite(t0 float64, x0, d0 plasma.State, t1 float64, x1, d1 plasma.State, s float64) plasma.State {
	h := t1 - t0
	th := (s - t0) / h
	th2 := th * th
	th3 := th2 * th
	h00 := 2*th3 - 3*th2 + 1
	h10 := th3 - 2*th2 + th
	h01 := -2*th3 + 3*th2
	h11 := th3 - th2

	out := make(plasma.State, len(x0))
	for i := range out {
		out[i] = h00*x0[i] + h10*h*d0[i] + h01*x1[i] + h11*h*d1[i]
	}
	return out
}
