// Package analysis probes the numerical robustness of equilibrium solutions:
// the spread of terminal populations over randomized initial states, the
// propagation of temperature and density measurement error into the answer,
// and the sensitivity of the answer to the output time grid itself.
//
// Every probe observes the same column layout: the terminal stage
// populations followed by the terminal radiated power, see
// [ComponentLabels].
package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/go-kit/log"
	"gonum.org/v1/gonum/floats"

	"coronal/internal/integrate"
	"coronal/internal/plasma"
)

// Config controls ensemble size, randomization and parallelism.
type Config struct {
	// Samples is the ensemble size per probe point. Defaults to 50.
	Samples int

	// Total is the particle density every random initial state is
	// normalized to, in m^-3. Defaults to 1e17.
	Total float64

	// Initial is the deterministic starting population used by the
	// reference run and the grid probes. Defaults to a ground-state
	// population of 1e20 m^-3.
	Initial plasma.State

	// Times is the output grid for ensemble member runs. Defaults to the
	// standard 200-point grid.
	Times []float64

	// Seed makes the drawn ensembles reproducible. Every value, zero
	// included, is used as given; the CLI layer supplies the default.
	Seed int64

	// Workers bounds the number of concurrent runs. Defaults to the CPU
	// count.
	Workers int

	Logger log.Logger
}

// Ensemble runs randomized integration ensembles against one integrator.
//
// Random draws happen sequentially from a single seeded source before any
// integration starts, so results are reproducible regardless of Workers.
type Ensemble struct {
	in      *integrate.Integrator
	samples int
	total   float64
	initial plasma.State
	times   []float64
	workers int
	rng     *rand.Rand
	logger  log.Logger
}

// NewEnsemble returns an Ensemble with config defaults applied.
func NewEnsemble(in *integrate.Integrator, cfg Config) *Ensemble {
	if cfg.Samples <= 0 {
		cfg.Samples = 50
	}
	if cfg.Total <= 0 {
		cfg.Total = 1e17
	}
	if cfg.Initial == nil {
		cfg.Initial = plasma.GroundState(in.Stages(), 1e20)
	}
	if len(cfg.Times) == 0 {
		cfg.Times = floats.LogSpan(make([]float64, 200), 1e-6, 1e2)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	return &Ensemble{
		in:      in,
		samples: cfg.Samples,
		total:   cfg.Total,
		initial: cfg.Initial.Clone(),
		times:   cfg.Times,
		workers: cfg.Workers,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		logger:  cfg.Logger,
	}
}

// randomState draws a stage population spread across sixteen decades and
// normalizes it to the configured total density.
func (e *Ensemble) randomState() plasma.State {
	s := make(plasma.State, e.in.Stages())
	for k := range s {
		s[k] = e.rng.Float64() * math.Pow(10, 1+16*e.rng.Float64())
	}
	floats.Scale(e.total/floats.Sum(s), s)
	return s
}

// terminalSample flattens one run into the stages-plus-power column layout.
// A run whose series lacks the radiated power channel yields NaN there and
// is dropped by the ensemble NaN filter.
func terminalSample(run *integrate.Result) []float64 {
	term := run.Terminal()
	out := make([]float64, 0, len(term)+1)
	out = append(out, term...)
	prad := math.NaN()
	if col := run.Series.Scalar[plasma.ChanPrad]; len(col) > 0 {
		prad = col[len(col)-1]
	}
	return append(out, prad)
}

func anyNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// ComponentLabels names the result columns: the neutral ground stage, each
// charge state, then the radiated power.
func ComponentLabels(stages int) []string {
	labels := make([]string, stages+1)
	labels[0] = "g.s."
	for k := 1; k < stages; k++ {
		labels[k] = fmt.Sprintf("%d+", k)
	}
	labels[stages] = "Prad"
	return labels
}
