package integrate

import (
	"context"
	"errors"
	"math"
	"testing"

	"coronal/internal/plasma"
)

// recordingModel captures every state it is evaluated with. Its derivative
// drains the ground stage hard so intermediate trial states go negative and
// the clamp boundary is exercised.
type recordingModel struct {
	states []plasma.State
	deriv  plasma.State
}

func (m *recordingModel) Stages() int { return len(m.deriv) }

func (m *recordingModel) Evaluate(_, _ float64, state plasma.State, _ []float64) (plasma.State, plasma.Snapshot) {
	m.states = append(m.states, state.Clone())
	d := m.deriv.Clone()
	return d, plasma.Snapshot{
		plasma.ChanDeriv: d.Clone(),
		plasma.ChanPrad:  {1.0},
	}
}

func TestRunClampsBeforeEveryEvaluation(t *testing.T) {
	model := &recordingModel{deriv: plasma.State{-1e25, 1e25}}
	in, err := New(model, Options{Method: MethodRK45})
	if err != nil {
		t.Fatal(err)
	}
	cond := plasma.Conditions{Te: 50, Ne: 1e20}
	_, err = in.Run(context.Background(), cond, plasma.State{1e20, 0}, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}

	if len(model.states) == 0 {
		t.Fatal("model never evaluated")
	}
	sawClamp := false
	for _, s := range model.states {
		for k, v := range s {
			if v < 0 {
				t.Fatalf("model observed negative state[%d] = %g", k, v)
			}
			if k == 0 && v == 0 {
				sawClamp = true
			}
		}
	}
	if !sawClamp {
		t.Error("drain never drove the ground stage negative; clamp path not exercised")
	}
}

func TestRunValidation(t *testing.T) {
	model := &recordingModel{deriv: plasma.State{0, 0}}
	in, err := New(model, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	state := plasma.State{1e20, 0}
	times := []float64{0, 1}

	tests := []struct {
		name  string
		cond  plasma.Conditions
		state plasma.State
		times []float64
		want  error
	}{
		{"zero te", plasma.Conditions{Te: 0, Ne: 1e20}, state, times, plasma.ErrNonPositiveTemperature},
		{"nan te", plasma.Conditions{Te: math.NaN(), Ne: 1e20}, state, times, plasma.ErrNonPositiveTemperature},
		{"zero ne", plasma.Conditions{Te: 50, Ne: 0}, state, times, plasma.ErrNonPositiveDensity},
		{"negative refuel", plasma.Conditions{Te: 50, Ne: 1e20, RefuelRate: -1}, state, times, plasma.ErrNegativeRefuelRate},
		{"empty grid", plasma.Conditions{Te: 50, Ne: 1e20}, state, nil, plasma.ErrEmptyTimeGrid},
		{"non-increasing grid", plasma.Conditions{Te: 50, Ne: 1e20}, state, []float64{0, 1, 1}, plasma.ErrNonIncreasingTimeGrid},
		{"wrong state length", plasma.Conditions{Te: 50, Ne: 1e20}, plasma.State{1e20}, times, plasma.ErrStateDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(model.states)
			_, err := in.Run(ctx, tt.cond, tt.state, tt.times)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run error = %v, want %v", err, tt.want)
			}
			if len(model.states) != before {
				t.Error("model evaluated despite invalid configuration")
			}
		})
	}
}

func TestNewUnknownMethod(t *testing.T) {
	_, err := New(&recordingModel{deriv: plasma.State{0}}, Options{Method: "lsoda"})
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("New error = %v, want ErrUnknownMethod", err)
	}
}

// nanModel goes non-finite as soon as the run leaves its initial time.
type nanModel struct{ start float64 }

func (m *nanModel) Stages() int { return 2 }

func (m *nanModel) Evaluate(_, _ float64, state plasma.State, _ []float64) (plasma.State, plasma.Snapshot) {
	d := plasma.State{-state[0], state[0]}
	if state[0] < m.start {
		d = plasma.State{math.NaN(), math.NaN()}
	}
	return d, plasma.Snapshot{plasma.ChanDeriv: d, plasma.ChanPrad: {0}}
}

func TestRunAttributesIntegrationError(t *testing.T) {
	in, err := New(&nanModel{start: 1e20}, Options{Method: MethodRK45})
	if err != nil {
		t.Fatal(err)
	}
	cond := plasma.Conditions{Te: 7, Ne: 3e19, RefuelRate: 2}
	_, err = in.Run(context.Background(), cond, plasma.State{1e20, 0}, []float64{0, 1})

	var ie *plasma.IntegrationError
	if !errors.As(err, &ie) {
		t.Fatalf("Run error = %v, want IntegrationError", err)
	}
	if ie.Te != cond.Te || ie.Ne != cond.Ne || ie.RefuelRate != cond.RefuelRate {
		t.Errorf("error conditions = (%g, %g, %g), want (%g, %g, %g)",
			ie.Te, ie.Ne, ie.RefuelRate, cond.Te, cond.Ne, cond.RefuelRate)
	}
	if !errors.Is(err, plasma.ErrNonFiniteDerivative) {
		t.Errorf("cause = %v, want ErrNonFiniteDerivative", ie.Err)
	}
}

func TestRunResultShape(t *testing.T) {
	model := &recordingModel{deriv: plasma.State{0, 0}}
	in, err := New(model, Options{})
	if err != nil {
		t.Fatal(err)
	}
	times := []float64{0, 1, 2}
	res, err := in.Run(context.Background(), plasma.Conditions{Te: 50, Ne: 1e20}, plasma.State{1e20, 5e19}, times)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.States) != len(times) || len(res.Times) != len(times) {
		t.Fatalf("result rows = %d, times = %d, want %d", len(res.States), len(res.Times), len(times))
	}
	if res.Evals == 0 {
		t.Error("Evals = 0, want > 0")
	}
	if len(res.Accounting.EvalCount) != len(times) {
		t.Errorf("accounting entries = %d, want %d", len(res.Accounting.EvalCount), len(times))
	}
	if got := res.Terminal(); got[0] != res.States[2][0] {
		t.Errorf("Terminal() = %v, want last row %v", got, res.States[2])
	}

	// Default recorded channels: Prad scalar, dNzk per-stage.
	if _, ok := res.Series.Scalar[plasma.ChanPrad]; !ok {
		t.Error("series missing Prad")
	}
	dnzk, ok := res.Series.Vector[plasma.ChanDeriv]
	if !ok {
		t.Fatal("series missing dNzk")
	}
	if r, c := dnzk.Dims(); r != len(times) || c != 2 {
		t.Errorf("dNzk dims = %dx%d, want %dx2", r, c, len(times))
	}
}

func TestRunChannelFilter(t *testing.T) {
	model := &recordingModel{deriv: plasma.State{0, 0}}
	in, err := New(model, Options{Channels: []string{plasma.ChanPrad}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := in.Run(context.Background(), plasma.Conditions{Te: 50, Ne: 1e20}, plasma.State{1e20, 0}, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Series.Scalar[plasma.ChanPrad]; !ok {
		t.Error("series missing requested Prad channel")
	}
	if _, ok := res.Series.Vector[plasma.ChanDeriv]; ok {
		t.Error("series contains dNzk despite filter")
	}
}

func TestRunRefuellingConservesTotal(t *testing.T) {
	sp := plasma.State{5e19, 5e19}
	model := &recordingModel{deriv: plasma.State{0, 0}}
	in, err := New(model, Options{})
	if err != nil {
		t.Fatal(err)
	}
	cond := plasma.Conditions{Te: 50, Ne: 1e20, RefuelRate: 1e3}
	res, err := in.Run(context.Background(), cond, sp, []float64{0, 1e-3, 1e-2})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range res.States {
		if diff := math.Abs(row.Total() - 1e20); diff > 1e-4*1e20 {
			t.Errorf("row %d total = %g, want 1e20 (diff %g)", i, row.Total(), diff)
		}
	}
}
