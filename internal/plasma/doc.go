// Package plasma defines the core types for impurity ionization-stage
// evolution:
//
//   - [State]: stage population vector (index 0 = neutral)
//   - [Conditions]: fixed per-run plasma parameters (Te, Ne, refuelling)
//   - [RateModel]: interface turning conditions + populations into
//     derivatives and diagnostics
//   - [Snapshot] / [EvalLog]: per-evaluation diagnostic records
//   - [StepAccounting]: the bookkeeping that maps evaluations back onto the
//     caller's output time grid
//
// # Ownership
//
// A State and an EvalLog belong to exactly one in-flight integration run.
// The integrator resets both at the start of a run; scan drivers decide
// between runs whether the terminal state is carried forward or reset to a
// ground-state seed.
//
// # Error taxonomy
//
// Configuration errors (unknown species, non-positive Te/Ne, bad time grid)
// fail before any integration work. [IntegrationError] reports a run the ODE
// driver could not complete, carrying the offending conditions. Non-physical
// terminal values are not errors at all: scan drivers flag the grid point
// and keep sweeping.
package plasma
