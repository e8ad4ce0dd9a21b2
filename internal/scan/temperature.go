package scan

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"coronal/internal/plasma"
)

// TemperatureResult holds one temperature sweep at fixed density.
type TemperatureResult struct {
	// Te is the swept temperature axis, in eV.
	Te []float64
	// Ne is the fixed electron density, in m^-3.
	Ne float64
	// Terminal holds the final stage populations, one row per Te point.
	Terminal *mat.Dense
	// Channels holds the final value of each diagnostic channel, one row
	// per Te point. Scalar channels have width one.
	Channels map[string]*mat.Dense
	// Missing marks Te points whose run failed or ended non-physical.
	Missing []bool
}

// Temperature integrates to the end of the time grid at every temperature on
// the axis, holding the electron density fixed. Each run starts from the
// configured initial population unless Carry is set, in which case the
// previous terminal state seeds the next run.
func (d *Driver) Temperature(ctx context.Context, teValues []float64, ne float64) (*TemperatureResult, error) {
	if err := validateTeAxis(teValues); err != nil {
		return nil, err
	}
	if !(ne > 0) {
		return nil, fmt.Errorf("%w: ne=%g", plasma.ErrNonPositiveDensity, ne)
	}

	stages := d.in.Stages()
	res := &TemperatureResult{
		Te:       append([]float64(nil), teValues...),
		Ne:       ne,
		Terminal: mat.NewDense(len(teValues), stages, nil),
		Channels: make(map[string]*mat.Dense),
		Missing:  make([]bool, len(teValues)),
	}

	state := d.cfg.Initial.Clone()
	for i, te := range teValues {
		d.logger.Log("level", "info", "msg", "evaluating scan point",
			"sweep", "te", "point", i+1, "points", len(teValues), "te", te, "ne", ne)

		run, err := d.in.Run(ctx, plasma.Conditions{Te: te, Ne: ne}, state, d.cfg.Times)
		if err != nil {
			if !missingPoint(err) {
				return nil, err
			}
			res.Missing[i] = true
			continue
		}

		term := run.Terminal()
		if nonPhysical(term) {
			d.logger.Log("level", "warn", "msg", "non-physical terminal state",
				"sweep", "te", "te", te, "ne", ne)
			res.Missing[i] = true
			continue
		}

		res.Terminal.SetRow(i, term)
		collectTerminal(res.Channels, len(teValues), i, run.Series)
		if d.cfg.Carry {
			state = term.Clone()
		}
	}

	blankMissing(res.Terminal, res.Channels, res.Missing)
	return res, nil
}
