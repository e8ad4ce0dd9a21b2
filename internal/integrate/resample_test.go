package integrate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"coronal/internal/plasma"
)

// syntheticLog builds an unfiltered log of m entries where entry i carries
// Prad = i and dNzk = [i, 2i], so attributed indices are readable off the
// resampled values.
func syntheticLog(m int) *plasma.EvalLog {
	l := plasma.NewEvalLog()
	for i := 0; i < m; i++ {
		v := float64(i)
		l.Append(plasma.Snapshot{
			plasma.ChanPrad:  {v},
			plasma.ChanDeriv: {v, 2 * v},
		})
	}
	return l
}

func TestResampleOneCheckpointPerRow(t *testing.T) {
	// Internal times land exactly on the output grid, so row s takes log
	// entry EvalCount[s]-1 and every row is filled.
	times := []float64{0, 1, 2, 3}
	acct := plasma.StepAccounting{
		EvalCount:    []int{1, 4, 9, 12},
		InternalTime: []float64{0, 1, 2, 3},
	}
	s := Resample(syntheticLog(12), acct, times)

	want := []float64{0, 3, 8, 11}
	if diff := cmp.Diff(want, s.Scalar[plasma.ChanPrad]); diff != "" {
		t.Errorf("Prad rows mismatch (-want +got):\n%s", diff)
	}

	dnzk := s.Vector[plasma.ChanDeriv]
	r, c := dnzk.Dims()
	if r != 4 || c != 2 {
		t.Fatalf("dNzk dims = %dx%d, want 4x2", r, c)
	}
	for i, idx := range want {
		if dnzk.At(i, 0) != idx || dnzk.At(i, 1) != 2*idx {
			t.Errorf("dNzk row %d = [%g %g], want [%g %g]", i, dnzk.At(i, 0), dnzk.At(i, 1), idx, 2*idx)
		}
	}
}

func TestResampleCoarseCheckpoints(t *testing.T) {
	// One accepted span can cover several output rows: rows before a
	// checkpoint's internal time inherit the previous checkpoint's last
	// evaluation, and the tail rows take the final checkpoint's.
	times := []float64{0, 1, 2, 3, 4}
	acct := plasma.StepAccounting{
		EvalCount:    []int{1, 7, 7, 13, 13},
		InternalTime: []float64{0, 2.5, 2.5, 4, 4},
	}
	s := Resample(syntheticLog(13), acct, times)

	want := []float64{0, 0, 0, 6, 12}
	if diff := cmp.Diff(want, s.Scalar[plasma.ChanPrad]); diff != "" {
		t.Errorf("Prad rows mismatch (-want +got):\n%s", diff)
	}
}

func TestResampleMonotonicAttribution(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4, 5}
	acct := plasma.StepAccounting{
		EvalCount:    []int{1, 2, 5, 5, 9, 20},
		InternalTime: []float64{0, 1.5, 2, 3.5, 4, 5},
	}
	s := Resample(syntheticLog(20), acct, times)

	rows := s.Scalar[plasma.ChanPrad]
	if len(rows) != len(times) {
		t.Fatalf("got %d rows, want %d", len(rows), len(times))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i] < rows[i-1] {
			t.Errorf("attributed index decreased at row %d: %v", i, rows)
		}
	}
}

func TestResampleClampsEvalIndices(t *testing.T) {
	// Counts past the log length clamp to the last entry; zero counts clamp
	// to the first.
	times := []float64{0, 1, 2}
	acct := plasma.StepAccounting{
		EvalCount:    []int{0, 5, 99},
		InternalTime: []float64{0, 1, 2},
	}
	s := Resample(syntheticLog(6), acct, times)

	want := []float64{0, 4, 5}
	if diff := cmp.Diff(want, s.Scalar[plasma.ChanPrad]); diff != "" {
		t.Errorf("Prad rows mismatch (-want +got):\n%s", diff)
	}
}

func TestResampleInternalTimeBeyondGrid(t *testing.T) {
	// A final step that overshoots the grid pushes its row bound past the
	// end; earlier ranges must still cover every row.
	times := []float64{0, 1, 2}
	acct := plasma.StepAccounting{
		EvalCount:    []int{1, 4, 8},
		InternalTime: []float64{0, 5, 10},
	}
	s := Resample(syntheticLog(8), acct, times)

	want := []float64{0, 0, 0}
	if diff := cmp.Diff(want, s.Scalar[plasma.ChanPrad]); diff != "" {
		t.Errorf("Prad rows mismatch (-want +got):\n%s", diff)
	}
}

func TestResampleSinglePoint(t *testing.T) {
	acct := plasma.StepAccounting{EvalCount: []int{1}, InternalTime: []float64{7}}
	s := Resample(syntheticLog(1), acct, []float64{7})
	if got := s.Scalar[plasma.ChanPrad]; len(got) != 1 || got[0] != 0 {
		t.Errorf("Prad = %v, want [0]", got)
	}
}

func TestResampleEmptyLog(t *testing.T) {
	s := Resample(plasma.NewEvalLog(), plasma.StepAccounting{}, []float64{0, 1})
	if len(s.Scalar) != 0 || len(s.Vector) != 0 {
		t.Errorf("expected empty series, got scalar=%v vector=%v", s.Scalar, s.Vector)
	}
	if len(s.Times) != 2 {
		t.Errorf("Times = %v, want copy of grid", s.Times)
	}
}

func TestSeriesChannels(t *testing.T) {
	times := []float64{0, 1}
	acct := plasma.StepAccounting{EvalCount: []int{1, 2}, InternalTime: []float64{0, 1}}
	s := Resample(syntheticLog(2), acct, times)
	want := []string{plasma.ChanPrad, plasma.ChanDeriv}
	if diff := cmp.Diff(want, s.Channels()); diff != "" {
		t.Errorf("Channels mismatch (-want +got):\n%s", diff)
	}
}
