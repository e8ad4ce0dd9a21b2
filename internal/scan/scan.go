// Package scan sweeps plasma conditions across parameter grids and collects
// the terminal stage populations and terminal diagnostics at every grid
// point.
//
// Three sweep shapes are supported. [Driver.Temperature] varies Te at fixed
// density, [Driver.TempDensity] runs a nested Te by Ne grid with optional
// refuelling, and [Driver.Density] varies Ne at fixed temperature while
// chaining each terminal state into the next run.
//
// A grid point whose integration fails, or whose terminal state comes out
// non-physical, is recorded as missing and the sweep continues. Rows for
// missing points hold NaN. Invalid axes or conditions abort the whole sweep
// before or as soon as they are seen.
package scan

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"gonum.org/v1/gonum/mat"

	"coronal/internal/integrate"
	"coronal/internal/plasma"
)

// ErrEmptyAxis reports a sweep axis with no grid points.
var ErrEmptyAxis = errors.New("scan: empty parameter axis")

const (
	defaultInitialDensity = 1e20
	defaultSeedDensity    = 1e19
)

// Config controls how a Driver seeds and chains runs.
type Config struct {
	// Times is the per-run output time grid. Defaults to DefaultTimes.
	Times []float64

	// Initial seeds the first run of a sweep. Defaults to a ground-state
	// population of 1e20 m^-3.
	Initial plasma.State

	// Seed is the ground-state density the population is reset to before
	// every run of a refuelling sweep. Defaults to 1e19 m^-3.
	Seed float64

	// Carry reuses each terminal state as the next run's initial state in
	// temperature sweeps. Density sweeps always carry; refuelling sweeps
	// never do.
	Carry bool

	Logger log.Logger
}

// Driver executes parameter sweeps against a single integrator.
type Driver struct {
	in     *integrate.Integrator
	cfg    Config
	logger log.Logger
}

// New returns a Driver with config defaults applied.
func New(in *integrate.Integrator, cfg Config) *Driver {
	if len(cfg.Times) == 0 {
		cfg.Times = DefaultTimes()
	}
	if cfg.Initial == nil {
		cfg.Initial = plasma.GroundState(in.Stages(), defaultInitialDensity)
	}
	if cfg.Seed <= 0 {
		cfg.Seed = defaultSeedDensity
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	return &Driver{in: in, cfg: cfg, logger: cfg.Logger}
}

func validateTeAxis(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: te", ErrEmptyAxis)
	}
	for i, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: te[%d]=%g", plasma.ErrNonPositiveTemperature, i, v)
		}
	}
	return nil
}

func validateNeAxis(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: ne", ErrEmptyAxis)
	}
	for i, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: ne[%d]=%g", plasma.ErrNonPositiveDensity, i, v)
		}
	}
	return nil
}

// missingPoint classifies a run error. Integration failures mark the point
// missing and let the sweep continue; anything else aborts the sweep.
func missingPoint(err error) bool {
	var ie *plasma.IntegrationError
	return errors.As(err, &ie)
}

// nonPhysical flags terminal states the clamp convention cannot explain:
// non-finite values, or negative densities far beyond integration noise.
func nonPhysical(s plasma.State) bool {
	if !s.IsValid() {
		return true
	}
	scale := 0.0
	for _, v := range s {
		scale = math.Max(scale, math.Abs(v))
	}
	for _, v := range s {
		if v < -1e-6*scale {
			return true
		}
	}
	return false
}

// collectTerminal copies the final resampled value of every diagnostic
// channel into the per-point grids, allocating a grid on first sight of a
// channel.
func collectTerminal(channels map[string]*mat.Dense, points, i int, s *integrate.Series) {
	n := len(s.Times)
	if n == 0 {
		return
	}
	for name, col := range s.Scalar {
		m := channels[name]
		if m == nil {
			m = mat.NewDense(points, 1, nil)
			channels[name] = m
		}
		m.Set(i, 0, col[n-1])
	}
	for name, grid := range s.Vector {
		_, w := grid.Dims()
		m := channels[name]
		if m == nil {
			m = mat.NewDense(points, w, nil)
			channels[name] = m
		}
		m.SetRow(i, mat.Row(nil, n-1, grid))
	}
}

// blankMissing overwrites the rows of every missing point with NaN, covering
// channel grids that were allocated after the point had already failed.
func blankMissing(terminal *mat.Dense, channels map[string]*mat.Dense, missing []bool) {
	for i, miss := range missing {
		if !miss {
			continue
		}
		nanRow(terminal, i)
		for _, m := range channels {
			nanRow(m, i)
		}
	}
}

func nanRow(m *mat.Dense, i int) {
	_, c := m.Dims()
	for j := 0; j < c; j++ {
		m.Set(i, j, math.NaN())
	}
}
