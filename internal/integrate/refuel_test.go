package integrate

import (
	"math"
	"testing"

	"coronal/internal/plasma"
)

func TestRefuellingMassBalance(t *testing.T) {
	tests := []struct {
		name  string
		state plasma.State
		rate  float64
	}{
		{"two stage", plasma.State{1e20, 5e19}, 1e3},
		{"empty ground", plasma.State{0, 1e20, 3e18}, 1e4},
		{"single occupied", plasma.State{0, 0, 2e19, 0}, 0.5},
		{"uniform", plasma.State{1e19, 1e19, 1e19, 1e19, 1e19}, 1e6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deriv := make(plasma.State, len(tt.state))
			if !(Refuelling{Rate: tt.rate}).Adjust(deriv, tt.state) {
				t.Fatal("Adjust reported no change with positive rate")
			}
			sum := 0.0
			for _, d := range deriv {
				sum += d
			}
			scale := tt.state.Total() * tt.rate
			if math.Abs(sum) > 1e-12*scale {
				t.Errorf("adjustment sum = %g, want 0 (scale %g)", sum, scale)
			}
		})
	}
}

func TestRefuellingDirectsTowardGround(t *testing.T) {
	state := plasma.State{0, 4e19}
	deriv := make(plasma.State, 2)
	(Refuelling{Rate: 1e3}).Adjust(deriv, state)
	if want := 4e19 * 1e3; deriv[0] != want {
		t.Errorf("deriv[0] = %g, want %g", deriv[0], want)
	}
	if want := -4e19 * 1e3; deriv[1] != want {
		t.Errorf("deriv[1] = %g, want %g", deriv[1], want)
	}
}

func TestRefuellingZeroRateIsNoOp(t *testing.T) {
	deriv := plasma.State{1, 2, 3}
	if (Refuelling{}).Adjust(deriv, plasma.State{1e20, 0, 0}) {
		t.Fatal("Adjust reported change with zero rate")
	}
	want := plasma.State{1, 2, 3}
	for i := range deriv {
		if deriv[i] != want[i] {
			t.Errorf("deriv[%d] = %g, want %g", i, deriv[i], want[i])
		}
	}
}

func TestRefuellingAddsToExistingDerivative(t *testing.T) {
	state := plasma.State{2e3, 2e3}
	deriv := plasma.State{100, -100}
	(Refuelling{Rate: 10}).Adjust(deriv, state)
	// Injection 4e4/s into stage 0, removal 2e4/s from each stage.
	if want := 100.0 + 4e4 - 2e4; deriv[0] != want {
		t.Errorf("deriv[0] = %g, want %g", deriv[0], want)
	}
	if want := -100.0 - 2e4; deriv[1] != want {
		t.Errorf("deriv[1] = %g, want %g", deriv[1], want)
	}
}
