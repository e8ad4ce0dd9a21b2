package rates

import (
	"math"
	"testing"

	"coronal/internal/plasma"
	"coronal/internal/species"
)

func mustSpecies(t *testing.T, symbol string) species.Species {
	t.Helper()
	sp, err := species.Lookup(symbol)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", symbol, err)
	}
	return sp
}

func TestVoronovHydrogenAtThreshold(t *testing.T) {
	sp := mustSpecies(t, "h")
	// At Te equal to the threshold, U = 1 and the fit collapses to
	// A/(X+1)*e^-1, which is hand-checkable.
	got := voronov(sp.Ionization[0], 13.6)
	want := 0.291e-13 / 1.232 * math.Exp(-1)
	if math.Abs(got-want) > 1e-3*want {
		t.Errorf("voronov(h, 13.6 eV) = %g, want %g", got, want)
	}
}

func TestEvaluateConservesTotalDensity(t *testing.T) {
	tests := []struct {
		symbol string
		te, ne float64
	}{
		{"h", 50, 1e20},
		{"c", 10, 1e19},
		{"c", 1000, 1e21},
		{"o", 0.5, 1e18},
	}
	for _, tt := range tests {
		sp := mustSpecies(t, tt.symbol)
		model := NewCoronal(sp)
		state := make(plasma.State, sp.Stages())
		for k := range state {
			state[k] = 1e19 * float64(k+1)
		}
		deriv, _ := model.Evaluate(tt.te, tt.ne, state, nil)

		sum, scale := 0.0, 0.0
		for _, d := range deriv {
			sum += d
			scale += math.Abs(d)
		}
		if scale == 0 {
			t.Fatalf("%s Te=%g: all derivatives zero", tt.symbol, tt.te)
		}
		if math.Abs(sum) > 1e-12*scale {
			t.Errorf("%s Te=%g Ne=%g: sum(dNzk) = %g, want ~0 (scale %g)", tt.symbol, tt.te, tt.ne, sum, scale)
		}
	}
}

func TestEvaluateIonizationDirection(t *testing.T) {
	sp := mustSpecies(t, "h")
	model := NewCoronal(sp)
	state := plasma.State{1e19, 1e19}

	// Hot: net ionization drains the neutral stage.
	deriv, _ := model.Evaluate(100, 1e20, state, nil)
	if deriv[0] >= 0 || deriv[1] <= 0 {
		t.Errorf("Te=100 eV: deriv = %v, want neutral loss and ion gain", deriv)
	}

	// Cold: ionization is exponentially dead, recombination wins.
	deriv, _ = model.Evaluate(0.1, 1e20, state, nil)
	if deriv[0] <= 0 || deriv[1] >= 0 {
		t.Errorf("Te=0.1 eV: deriv = %v, want neutral gain and ion loss", deriv)
	}
}

func TestEvaluatePowers(t *testing.T) {
	sp := mustSpecies(t, "c")
	model := NewCoronal(sp)
	state := make(plasma.State, sp.Stages())
	for k := range state {
		state[k] = 1e19
	}
	_, snap := model.Evaluate(50, 1e20, state, nil)

	prad := snap.Scalar(plasma.ChanPrad)
	pcool := snap.Scalar(plasma.ChanPcool)
	if prad <= 0 {
		t.Errorf("Prad = %g, want > 0 with ions present", prad)
	}
	if pcool < prad {
		t.Errorf("Pcool = %g below Prad = %g; ionization sink only adds cooling", pcool, prad)
	}
}

func TestEvaluateChannels(t *testing.T) {
	sp := mustSpecies(t, "he")
	model := NewCoronal(sp)
	state := plasma.State{1e19, 2e19, 3e19}
	vzk := []float64{100, -50, 25}
	_, snap := model.Evaluate(50, 1e20, state, vzk)

	widths := map[string]int{
		plasma.ChanDeriv:       3,
		plasma.ChanPrad:        1,
		plasma.ChanPcool:       1,
		plasma.ChanStageFlux:   3,
		plasma.ChanElecDeriv:   1,
		plasma.ChanIonFlux:     1,
		plasma.ChanNeutralDens: 1,
		plasma.ChanNeutralFlux: 1,
	}
	for name, want := range widths {
		if got := snap.Width(name); got != want {
			t.Errorf("channel %s width = %d, want %d", name, got, want)
		}
	}

	wantStage := []float64{1e19 * 100, 2e19 * -50, 3e19 * 25}
	for k, want := range wantStage {
		if got := snap[plasma.ChanStageFlux][k]; got != want {
			t.Errorf("F_zk[%d] = %g, want %g", k, got, want)
		}
	}
	if got := snap.Scalar(plasma.ChanNeutralFlux); got != wantStage[0] {
		t.Errorf("F_n = %g, want %g", got, wantStage[0])
	}
	if got, want := snap.Scalar(plasma.ChanIonFlux), wantStage[1]+wantStage[2]; got != want {
		t.Errorf("F_i = %g, want %g", got, want)
	}
}

func TestEvaluateNilVelocities(t *testing.T) {
	sp := mustSpecies(t, "h")
	model := NewCoronal(sp)
	_, snap := model.Evaluate(50, 1e20, plasma.State{1e19, 1e19}, nil)
	for k, f := range snap[plasma.ChanStageFlux] {
		if f != 0 {
			t.Errorf("F_zk[%d] = %g with nil velocities, want 0", k, f)
		}
	}
}

func TestEvaluateDoesNotMutateState(t *testing.T) {
	sp := mustSpecies(t, "he")
	model := NewCoronal(sp)
	state := plasma.State{1e19, 2e19, 3e19}
	orig := state.Clone()
	model.Evaluate(50, 1e20, state, nil)
	for k := range state {
		if state[k] != orig[k] {
			t.Fatalf("Evaluate mutated state[%d]: %g -> %g", k, orig[k], state[k])
		}
	}
}

func TestEvaluateElectronSourceMatchesChargeBalance(t *testing.T) {
	sp := mustSpecies(t, "c")
	model := NewCoronal(sp)
	state := make(plasma.State, sp.Stages())
	for k := range state {
		state[k] = 5e18
	}
	deriv, snap := model.Evaluate(20, 1e20, state, nil)

	want := 0.0
	for k, d := range deriv {
		want += float64(k) * d
	}
	got := snap.Scalar(plasma.ChanElecDeriv)
	scale := math.Abs(want)
	if scale == 0 {
		scale = 1
	}
	if math.Abs(got-want) > 1e-9*scale {
		t.Errorf("dNe = %g, want charge-weighted sum %g", got, want)
	}
}
