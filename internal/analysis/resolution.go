package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"coronal/internal/plasma"
)

// DefaultResolutionCounts returns the grid sizes of a resolution sweep,
// twenty counts log-spaced over 10 to 1000 points.
func DefaultResolutionCounts() []int {
	raw := floats.LogSpan(make([]float64, 20), 10, 1000)
	counts := make([]int, len(raw))
	for i, v := range raw {
		counts[i] = int(math.Round(v))
	}
	return counts
}

// ResolutionResult holds one output-grid resolution sweep.
type ResolutionResult struct {
	// Points holds the probed grid sizes.
	Points []int
	// Reference is the high-resolution answer, Diff the signed distance
	// reference minus test with one row per probed size.
	Reference []float64
	Diff      *mat.Dense
}

// ResolutionSweep re-integrates the deterministic initial population on
// progressively finer output grids and reports how far each terminal answer
// sits from the high-resolution reference. A nil counts slice probes
// DefaultResolutionCounts.
func (e *Ensemble) ResolutionSweep(ctx context.Context, te, ne float64, counts []int) (*ResolutionResult, error) {
	if len(counts) == 0 {
		counts = DefaultResolutionCounts()
	}
	for _, n := range counts {
		if n < 2 {
			return nil, fmt.Errorf("analysis: resolution count %d too small", n)
		}
	}

	ref, err := e.Reference(ctx, te, ne)
	if err != nil {
		return nil, err
	}

	width := e.in.Stages() + 1
	res := &ResolutionResult{
		Points:    append([]int(nil), counts...),
		Reference: ref,
		Diff:      mat.NewDense(len(counts), width, nil),
	}
	for i, n := range counts {
		e.logger.Log("level", "info", "msg", "probing grid resolution", "points", n)

		times := floats.LogSpan(make([]float64, n), 1e-6, 1e2)
		run, err := e.in.Run(ctx, plasma.Conditions{Te: te, Ne: ne}, e.initial, times)
		if err != nil {
			return nil, err
		}
		sample := terminalSample(run)
		for k := 0; k < width; k++ {
			res.Diff.Set(i, k, ref[k]-sample[k])
		}
	}
	return res, nil
}

// StartTimeResult holds one start-time shift sweep.
type StartTimeResult struct {
	// StartTimes holds the first output time of each probe, in seconds.
	StartTimes []float64
	// RelDiff holds |(reference-test)/reference| per terminal column, one
	// row per probe. Missing marks probes whose run failed; their rows
	// are NaN.
	RelDiff *mat.Dense
	Missing []bool
}

// StartTimeSweep shifts the first output time across fourteen decades while
// keeping the grid size fixed, and reports the normalized terminal deviation
// from the reference. Starting late enough to skip the fast initial
// transient visibly degrades the answer; failed probes are marked missing.
// A nil shifts slice probes 100 decade exponents spanning -10 to 4.
func (e *Ensemble) StartTimeSweep(ctx context.Context, te, ne float64, shifts []float64) (*StartTimeResult, error) {
	if len(shifts) == 0 {
		shifts = floats.Span(make([]float64, 100), -10, 4)
	}

	ref, err := e.Reference(ctx, te, ne)
	if err != nil {
		return nil, err
	}

	width := e.in.Stages() + 1
	res := &StartTimeResult{
		StartTimes: make([]float64, len(shifts)),
		RelDiff:    mat.NewDense(len(shifts), width, nil),
		Missing:    make([]bool, len(shifts)),
	}
	for i, shift := range shifts {
		start := math.Pow(10, shift)
		res.StartTimes[i] = start

		times := floats.LogSpan(make([]float64, 200), start, 1e5)
		run, err := e.in.Run(ctx, plasma.Conditions{Te: te, Ne: ne}, e.initial, times)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Log("level", "warn", "msg", "start-time probe failed",
				"start", start, "err", err)
			res.Missing[i] = true
			for k := 0; k < width; k++ {
				res.RelDiff.Set(i, k, math.NaN())
			}
			continue
		}

		sample := terminalSample(run)
		for k := 0; k < width; k++ {
			res.RelDiff.Set(i, k, math.Abs((ref[k]-sample[k])/ref[k]))
		}
	}
	return res, nil
}
