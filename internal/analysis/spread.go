package analysis

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"coronal/internal/plasma"
)

// referenceTimes is the high-resolution grid equilibrium answers are
// computed on before coarser or perturbed runs are compared against them.
func referenceTimes() []float64 {
	return floats.LogSpan(make([]float64, 10000), 1e-10, 1e2)
}

// Reference integrates the deterministic initial population on the
// high-resolution grid and returns the terminal columns.
func (e *Ensemble) Reference(ctx context.Context, te, ne float64) ([]float64, error) {
	run, err := e.in.Run(ctx, plasma.Conditions{Te: te, Ne: ne}, e.initial, referenceTimes())
	if err != nil {
		return nil, err
	}
	return terminalSample(run), nil
}

// SpreadResult summarizes one randomized-initial-state ensemble.
type SpreadResult struct {
	// Mean and Stddev are per-column ensemble statistics over the kept
	// members. NormStddev is |Stddev/Mean|.
	Mean       []float64
	Stddev     []float64
	NormStddev []float64

	// Reference holds the high-resolution answer and RelDiff the relative
	// distance of the ensemble mean from it.
	Reference []float64
	RelDiff   []float64

	// Samples is the number of kept members, Dropped the number discarded
	// for failing or producing NaN.
	Samples int
	Dropped int
}

// Spread integrates an ensemble of randomized initial states at fixed
// conditions and measures how tightly the terminal columns cluster, and how
// far their mean sits from the reference answer. A tight cluster on the
// reference is evidence the equilibrium does not remember where it started.
func (e *Ensemble) Spread(ctx context.Context, te, ne float64) (*SpreadResult, error) {
	ref, err := e.Reference(ctx, te, ne)
	if err != nil {
		return nil, err
	}

	samples, dropped, err := e.runEnsemble(ctx, func() (plasma.Conditions, plasma.State) {
		return plasma.Conditions{Te: te, Ne: ne}, e.randomState()
	})
	if err != nil {
		return nil, err
	}

	width := e.in.Stages() + 1
	mean, std := columnStats(samples, width)
	res := &SpreadResult{
		Mean:       mean,
		Stddev:     std,
		NormStddev: make([]float64, width),
		Reference:  ref,
		RelDiff:    make([]float64, width),
		Samples:    len(samples),
		Dropped:    dropped,
	}
	for k := 0; k < width; k++ {
		res.NormStddev[k] = math.Abs(std[k] / mean[k])
		res.RelDiff[k] = (mean[k] - ref[k]) / ref[k]
	}

	e.logger.Log("level", "info", "msg", "ensemble complete",
		"te", te, "ne", ne, "kept", res.Samples, "dropped", res.Dropped)
	return res, nil
}

// runEnsemble draws every member sequentially from the single random source,
// then integrates them with bounded parallelism. Members whose run fails or
// produces NaN are dropped, the way rejected measurements would be.
func (e *Ensemble) runEnsemble(ctx context.Context, draw func() (plasma.Conditions, plasma.State)) ([][]float64, int, error) {
	conds := make([]plasma.Conditions, e.samples)
	inits := make([]plasma.State, e.samples)
	for i := range conds {
		conds[i], inits[i] = draw()
	}

	results := make([][]float64, e.samples)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.samples; i++ {
		i := i
		g.Go(func() error {
			run, err := e.in.Run(gctx, conds[i], inits[i], e.times)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.logger.Log("level", "debug", "msg", "ensemble member dropped",
					"te", conds[i].Te, "ne", conds[i].Ne, "err", err)
				return nil
			}
			results[i] = terminalSample(run)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	kept := make([][]float64, 0, e.samples)
	dropped := 0
	for _, r := range results {
		if r == nil || anyNaN(r) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped, nil
}

// columnStats computes the per-column mean and population standard deviation
// over the kept members.
func columnStats(samples [][]float64, width int) (mean, std []float64) {
	mean = make([]float64, width)
	std = make([]float64, width)
	col := make([]float64, len(samples))
	for k := 0; k < width; k++ {
		for i, s := range samples {
			col[i] = s[k]
		}
		mean[k], std[k] = stat.PopMeanStdDev(col, nil)
	}
	return mean, std
}
