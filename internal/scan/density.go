package scan

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"coronal/internal/plasma"
)

// DensityResult holds one density sweep at fixed temperature.
type DensityResult struct {
	// Ne is the swept density axis, in m^-3.
	Ne []float64
	// Te is the fixed electron temperature, in eV.
	Te float64
	// Terminal holds the final stage populations, one row per Ne point.
	Terminal *mat.Dense
	// Channels holds the final value of each diagnostic channel, one row
	// per Ne point. Scalar channels have width one.
	Channels map[string]*mat.Dense
	// Missing marks Ne points whose run failed or ended non-physical.
	Missing []bool
}

// Density integrates to the end of the time grid at every density on the
// axis, holding the temperature fixed. Each run after the first starts from
// the terminal state of the most recent successful run, so the sweep walks
// the equilibrium along the density axis. Missing points leave the carried
// state untouched.
func (d *Driver) Density(ctx context.Context, neValues []float64, te float64) (*DensityResult, error) {
	if err := validateNeAxis(neValues); err != nil {
		return nil, err
	}
	if !(te > 0) {
		return nil, fmt.Errorf("%w: te=%g", plasma.ErrNonPositiveTemperature, te)
	}

	stages := d.in.Stages()
	res := &DensityResult{
		Ne:       append([]float64(nil), neValues...),
		Te:       te,
		Terminal: mat.NewDense(len(neValues), stages, nil),
		Channels: make(map[string]*mat.Dense),
		Missing:  make([]bool, len(neValues)),
	}

	state := d.cfg.Initial.Clone()
	for j, ne := range neValues {
		d.logger.Log("level", "info", "msg", "evaluating scan point",
			"sweep", "ne", "point", j+1, "points", len(neValues), "te", te, "ne", ne)

		run, err := d.in.Run(ctx, plasma.Conditions{Te: te, Ne: ne}, state, d.cfg.Times)
		if err != nil {
			if !missingPoint(err) {
				return nil, err
			}
			res.Missing[j] = true
			continue
		}

		term := run.Terminal()
		if nonPhysical(term) {
			d.logger.Log("level", "warn", "msg", "non-physical terminal state",
				"sweep", "ne", "te", te, "ne", ne)
			res.Missing[j] = true
			continue
		}

		res.Terminal.SetRow(j, term)
		collectTerminal(res.Channels, len(neValues), j, run.Series)
		state = term.Clone()
	}

	blankMissing(res.Terminal, res.Channels, res.Missing)
	return res, nil
}
