package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"coronal/internal/plasma"
)

// Param selects which plasma condition an error-propagation probe perturbs.
type Param string

const (
	ParamTe Param = "te"
	ParamNe Param = "ne"
)

// sigmaPoints is the number of noise levels probed, from zero up to half the
// center value.
const sigmaPoints = 20

// PropagationResult holds one error-propagation probe.
type PropagationResult struct {
	Param  Param
	Center float64

	// Sigmas is the probed noise axis and RelSigma the same axis divided
	// by the center value.
	Sigmas   []float64
	RelSigma []float64

	// Spread holds |stddev/mean| of every terminal column, one row per
	// sigma.
	Spread *mat.Dense

	// Dropped counts discarded ensemble members per sigma.
	Dropped []int
}

// ErrorPropagation measures how normally distributed error on one measured
// condition spreads into the terminal columns. For every noise level an
// ensemble of runs perturbs the chosen parameter around its center value,
// each from a fresh random initial state, and the normalized deviation of
// each column is recorded. Members whose perturbed parameter comes out
// unusable are dropped.
func (e *Ensemble) ErrorPropagation(ctx context.Context, param Param, te, ne float64) (*PropagationResult, error) {
	var center float64
	switch param {
	case ParamTe:
		center = te
	case ParamNe:
		center = ne
	default:
		return nil, fmt.Errorf("analysis: unknown parameter %q", param)
	}
	if !(center > 0) {
		return nil, fmt.Errorf("analysis: %s center must be positive, got %g", param, center)
	}

	sigmas := floats.Span(make([]float64, sigmaPoints), 0, center/2)
	width := e.in.Stages() + 1
	res := &PropagationResult{
		Param:    param,
		Center:   center,
		Sigmas:   sigmas,
		RelSigma: make([]float64, len(sigmas)),
		Spread:   mat.NewDense(len(sigmas), width, nil),
		Dropped:  make([]int, len(sigmas)),
	}

	for si, sigma := range sigmas {
		res.RelSigma[si] = sigma / center
		e.logger.Log("level", "info", "msg", "propagating measurement error",
			"param", string(param), "point", si+1, "points", len(sigmas), "sigma", sigma)

		samples, dropped, err := e.runEnsemble(ctx, func() (plasma.Conditions, plasma.State) {
			cond := plasma.Conditions{Te: te, Ne: ne}
			v := e.rng.NormFloat64()*sigma + center
			if param == ParamTe {
				cond.Te = v
			} else {
				cond.Ne = v
			}
			return cond, e.randomState()
		})
		if err != nil {
			return nil, err
		}
		res.Dropped[si] = dropped

		mean, std := columnStats(samples, width)
		for k := 0; k < width; k++ {
			res.Spread.Set(si, k, math.Abs(std[k]/mean[k]))
		}
	}
	return res, nil
}
