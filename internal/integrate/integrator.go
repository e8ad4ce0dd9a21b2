// Package integrate evolves ionization-stage populations through time under
// fixed plasma conditions. An Integrator owns a rate model and an adaptive
// ODE driver; each run clamps states ahead of every rate-model call, records
// an evaluation log, and resamples the logged diagnostics onto the caller's
// output grid.
//
// # Failure handling
//
// Bad inputs (conditions, grid, state shape) fail before any integration
// work with sentinel errors from [coronal/internal/plasma]. A run that
// starts but cannot finish returns an [plasma.IntegrationError] carrying the
// conditions that produced it and never a partial grid.
package integrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/log"

	"coronal/internal/plasma"
)

// Options configures an Integrator. Zero values select the defaults.
type Options struct {
	Method    string   // rosenbrock (default) or rk45
	Tolerance float64  // relative error tolerance, default 1e-6
	MaxEvals  int      // rate-model evaluation budget per run, default 200000
	MinStep   float64  // absolute step floor, default 1e-16
	Channels  []string // recorded diagnostic channels, default plasma.DefaultChannels
	Logger    log.Logger
}

// Integrator runs the stage-population ODE under fixed conditions and
// resamples the recorded diagnostics onto the caller's output grid. It is
// safe to reuse across runs; each run gets a fresh evaluation log.
type Integrator struct {
	model    plasma.RateModel
	driver   *Driver
	channels []string
	logger   log.Logger
}

func New(model plasma.RateModel, opts Options) (*Integrator, error) {
	st, err := StepperFor(opts.Method)
	if err != nil {
		return nil, err
	}
	d := NewDriver(st)
	if opts.Tolerance > 0 {
		d.Tol = opts.Tolerance
	}
	if opts.MaxEvals > 0 {
		d.MaxEvals = opts.MaxEvals
	}
	if opts.MinStep > 0 {
		d.MinStep = opts.MinStep
	}
	channels := opts.Channels
	if channels == nil {
		channels = plasma.DefaultChannels
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Integrator{model: model, driver: d, channels: channels, logger: logger}, nil
}

// Stages returns the state vector length of the underlying rate model.
func (in *Integrator) Stages() int {
	return in.model.Stages()
}

// Result is one completed run.
type Result struct {
	Times      []float64
	States     []plasma.State // one row per output time
	Series     *Series
	Accounting plasma.StepAccounting
	Evals      int
}

// Terminal returns the state at the final output time.
func (r *Result) Terminal() plasma.State {
	return r.States[len(r.States)-1]
}

// Run integrates initial across outputTimes under cond. The refuelling rate
// and stage velocities come from cond; everything else about the run is
// fixed at construction.
func (in *Integrator) Run(ctx context.Context, cond plasma.Conditions, initial plasma.State, outputTimes []float64) (*Result, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}
	if err := validateGrid(outputTimes); err != nil {
		return nil, err
	}
	if len(initial) != in.model.Stages() {
		return nil, fmt.Errorf("%w: got %d, want %d", plasma.ErrStateDimension, len(initial), in.model.Stages())
	}

	evalLog := plasma.NewEvalLog(in.channels...)
	vzk := cond.StageVelocities(in.model.Stages())
	refuel := Refuelling{Rate: cond.RefuelRate}

	f := func(t float64, s plasma.State) plasma.State {
		clamped := s.Clamped()
		deriv, snap := in.model.Evaluate(cond.Te, cond.Ne, clamped, vzk)
		if refuel.Adjust(deriv, clamped) {
			snap[plasma.ChanDeriv] = deriv
		}
		evalLog.Append(snap)
		return deriv
	}

	rows, acct, err := in.driver.Solve(ctx, f, initial, outputTimes)
	if err != nil {
		var ie *plasma.IntegrationError
		if errors.As(err, &ie) {
			ie.Te, ie.Ne, ie.RefuelRate = cond.Te, cond.Ne, cond.RefuelRate
			in.logger.Log("level", "warn", "msg", "integration failed",
				"te", cond.Te, "ne", cond.Ne, "refuel", cond.RefuelRate,
				"time", ie.Time, "evals", ie.Evals, "cause", ie.Err)
			return nil, ie
		}
		return nil, err
	}

	in.logger.Log("level", "debug", "msg", "run complete",
		"te", cond.Te, "ne", cond.Ne, "refuel", cond.RefuelRate,
		"points", len(outputTimes), "evals", evalLog.Len(), "method", in.driver.Stepper.Name())

	return &Result{
		Times:      append([]float64(nil), outputTimes...),
		States:     rows,
		Series:     Resample(evalLog, acct, outputTimes),
		Accounting: acct,
		Evals:      evalLog.Len(),
	}, nil
}

func validateGrid(times []float64) error {
	if len(times) == 0 {
		return plasma.ErrEmptyTimeGrid
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return fmt.Errorf("%w: times[%d]=%g, times[%d]=%g",
				plasma.ErrNonIncreasingTimeGrid, i-1, times[i-1], i, times[i])
		}
	}
	return nil
}
