package integrate

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"coronal/internal/plasma"
)

// Series is the per-output-time diagnostic deliverable of a run: one value
// per requested time and channel. Width-1 channels land in Scalar as column
// slices; per-stage channels land in Vector as row-per-time matrices. Both
// are filled by the same attribution rule, only the storage shape differs.
type Series struct {
	Times  []float64
	Scalar map[string][]float64
	Vector map[string]*mat.Dense
}

// Channels lists every resampled channel name in sorted order.
func (s *Series) Channels() []string {
	names := make([]string, 0, len(s.Scalar)+len(s.Vector))
	for name := range s.Scalar {
		names = append(names, name)
	}
	for name := range s.Vector {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resample aligns the evaluation log onto the output grid. The log holds one
// entry per rate-model call in call order, many more than there are output
// rows; the accounting says, per output row, how far the solver had run and
// how many evaluations it had made when it covered that row.
//
// Row ranges come from time alignment: checkpoint i claims every output row
// with time below its internal time that no earlier checkpoint claimed. Each
// claimed row takes the value of the last evaluation recorded at or before
// checkpoint i. Rows ahead of the first checkpoint take the very first
// evaluation's value, rows at or past the last checkpoint take its value, so
// every row is assigned and attribution never moves backwards.
func Resample(evalLog *plasma.EvalLog, acct plasma.StepAccounting, times []float64) *Series {
	n := len(times)
	s := &Series{
		Times:  append([]float64(nil), times...),
		Scalar: make(map[string][]float64),
		Vector: make(map[string]*mat.Dense),
	}
	m := evalLog.Len()
	if n == 0 || m == 0 || len(acct.EvalCount) < n || len(acct.InternalTime) < n {
		return s
	}

	bounds := make([]int, n)
	for i := 0; i < n; i++ {
		b := sort.SearchFloat64s(times, acct.InternalTime[i])
		if i > 0 && b < bounds[i-1] {
			b = bounds[i-1]
		}
		bounds[i] = b
	}

	// Last recorded evaluation at or before checkpoint i.
	source := func(i int) plasma.Snapshot {
		idx := acct.EvalCount[i]
		if idx < 1 {
			idx = 1
		}
		if idx > m {
			idx = m
		}
		return evalLog.At(idx - 1)
	}

	for _, name := range evalLog.Channels() {
		width := evalLog.At(0).Width(name)
		if width == 0 {
			continue
		}
		out := mat.NewDense(n, width, nil)
		setRows := func(from, to int, vals []float64) {
			if len(vals) != width {
				return
			}
			for r := from; r < to && r < n; r++ {
				out.SetRow(r, vals)
			}
		}

		setRows(0, bounds[0], evalLog.At(0)[name])
		for i := 0; i < n-1; i++ {
			setRows(bounds[i], bounds[i+1], source(i)[name])
		}
		setRows(bounds[n-1], n, source(n-1)[name])

		if width == 1 {
			col := make([]float64, n)
			mat.Col(col, 0, out)
			s.Scalar[name] = col
		} else {
			s.Vector[name] = out
		}
	}
	return s
}
