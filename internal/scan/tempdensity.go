package scan

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"coronal/internal/integrate"
	"coronal/internal/plasma"
)

// TempDensityResult holds one nested temperature by density sweep.
type TempDensityResult struct {
	// Te is the outer temperature axis, in eV.
	Te []float64
	// Ne is the inner density axis, in m^-3.
	Ne []float64
	// RefuelRate is the refuelling rate applied to every run, in s^-1.
	RefuelRate float64
	// Terminal holds the final stage populations, one |Ne| by stages grid
	// per Te point.
	Terminal []*mat.Dense
	// Channels holds the final value of each diagnostic channel in the
	// same per-Te layout.
	Channels map[string][]*mat.Dense
	// Missing marks grid points whose run failed or ended non-physical,
	// indexed [te][ne].
	Missing [][]bool
}

// TempDensity integrates over the full Te by Ne grid. With a positive
// refuelling rate every run starts from a fresh ground-state population of
// Seed density, so grid points are independent of each other and of any
// earlier failures. With rate zero every run starts from the configured
// initial population.
func (d *Driver) TempDensity(ctx context.Context, teValues, neValues []float64, refuelRate float64) (*TempDensityResult, error) {
	if err := validateTeAxis(teValues); err != nil {
		return nil, err
	}
	if err := validateNeAxis(neValues); err != nil {
		return nil, err
	}
	if refuelRate < 0 || math.IsNaN(refuelRate) {
		return nil, fmt.Errorf("%w: got %g", plasma.ErrNegativeRefuelRate, refuelRate)
	}

	stages := d.in.Stages()
	res := &TempDensityResult{
		Te:         append([]float64(nil), teValues...),
		Ne:         append([]float64(nil), neValues...),
		RefuelRate: refuelRate,
		Terminal:   make([]*mat.Dense, len(teValues)),
		Channels:   make(map[string][]*mat.Dense),
		Missing:    make([][]bool, len(teValues)),
	}
	for i := range teValues {
		res.Terminal[i] = mat.NewDense(len(neValues), stages, nil)
		res.Missing[i] = make([]bool, len(neValues))
	}

	collect := func(i, j int, s *integrate.Series) {
		n := len(s.Times)
		if n == 0 {
			return
		}
		for name, col := range s.Scalar {
			grid := d.nestedGrid(res, name, i, len(neValues), 1)
			grid.Set(j, 0, col[n-1])
		}
		for name, m := range s.Vector {
			_, w := m.Dims()
			grid := d.nestedGrid(res, name, i, len(neValues), w)
			grid.SetRow(j, mat.Row(nil, n-1, m))
		}
	}

	for i, te := range teValues {
		d.logger.Log("level", "info", "msg", "evaluating scan point",
			"sweep", "te-ne", "point", i+1, "points", len(teValues), "te", te)

		for j, ne := range neValues {
			initial := d.cfg.Initial
			if refuelRate > 0 {
				initial = plasma.GroundState(stages, d.cfg.Seed)
			}

			run, err := d.in.Run(ctx, plasma.Conditions{Te: te, Ne: ne, RefuelRate: refuelRate}, initial, d.cfg.Times)
			if err != nil {
				if !missingPoint(err) {
					return nil, err
				}
				res.Missing[i][j] = true
				continue
			}

			term := run.Terminal()
			if nonPhysical(term) {
				d.logger.Log("level", "warn", "msg", "non-physical terminal state",
					"sweep", "te-ne", "te", te, "ne", ne)
				res.Missing[i][j] = true
				continue
			}

			res.Terminal[i].SetRow(j, term)
			collect(i, j, run.Series)
		}
	}

	fillNestedGaps(res.Channels, len(neValues))
	for i := range res.Missing {
		for j, miss := range res.Missing[i] {
			if !miss {
				continue
			}
			nanRow(res.Terminal[i], j)
			for _, grids := range res.Channels {
				nanRow(grids[i], j)
			}
		}
	}
	return res, nil
}

// nestedGrid returns the channel grid for outer point i, allocating the
// channel's per-Te slice and the grid itself on first use.
func (d *Driver) nestedGrid(res *TempDensityResult, name string, i, rows, cols int) *mat.Dense {
	grids := res.Channels[name]
	if grids == nil {
		grids = make([]*mat.Dense, len(res.Te))
		res.Channels[name] = grids
	}
	if grids[i] == nil {
		grids[i] = mat.NewDense(rows, cols, nil)
	}
	return grids[i]
}

// fillNestedGaps allocates NaN grids for outer points where every inner run
// of a channel failed, so results stay rectangular.
func fillNestedGaps(channels map[string][]*mat.Dense, rows int) {
	for _, grids := range channels {
		cols := 0
		for _, g := range grids {
			if g != nil {
				_, cols = g.Dims()
				break
			}
		}
		for i, g := range grids {
			if g != nil {
				continue
			}
			data := make([]float64, rows*cols)
			for k := range data {
				data[k] = math.NaN()
			}
			grids[i] = mat.NewDense(rows, cols, data)
		}
	}
}
