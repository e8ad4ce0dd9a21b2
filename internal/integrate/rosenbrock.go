package integrate

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"coronal/internal/plasma"
)

const sqrtEps = 1.4901161193847656e-08

// Rosenbrock is a linearly implicit 2(3) pair. Stage populations relax on
// the Ne*K collisional timescale, far below the output horizon, and an
// explicit method would stay stability-bound at that timescale for the whole
// run. Solving against W = I - h*d*J keeps output-scale steps stable at the
// cost of one small LU factorization per trial.
type Rosenbrock struct {
	d   float64
	e32 float64
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{
		d:   1.0 / (2.0 + math.Sqrt2),
		e32: 6.0 + math.Sqrt2,
	}
}

func (r *Rosenbrock) Name() string { return MethodRosenbrock }
func (r *Rosenbrock) Order() int   { return 3 }

func (r *Rosenbrock) Step(f DerivFunc, t, h, tol float64, x, f0 plasma.State) StepTrial {
	n := len(x)
	rejected := StepTrial{State: x, Deriv: f0, ErrRatio: math.Inf(1)}

	jac := jacobian(f, t, x, f0)

	w := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -h * r.d * jac.At(i, j)
			if i == j {
				v += 1
			}
			w.Set(i, j, v)
		}
	}
	var lu mat.LU
	lu.Factorize(w)

	k1 := make(plasma.State, n)
	if !solveVec(&lu, f0, k1) {
		return rejected
	}

	mid := make(plasma.State, n)
	for i := 0; i < n; i++ {
		mid[i] = x[i] + 0.5*h*k1[i]
	}
	f1 := f(t+0.5*h, mid)

	rhs := make(plasma.State, n)
	for i := 0; i < n; i++ {
		rhs[i] = f1[i] - k1[i]
	}
	k2 := make(plasma.State, n)
	if !solveVec(&lu, rhs, k2) {
		return rejected
	}
	for i := 0; i < n; i++ {
		k2[i] += k1[i]
	}

	xNew := make(plasma.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*k2[i]
	}
	f2 := f(t+h, xNew)

	for i := 0; i < n; i++ {
		rhs[i] = f2[i] - r.e32*(k2[i]-f1[i]) - 2*(k1[i]-f0[i])
	}
	k3 := make(plasma.State, n)
	if !solveVec(&lu, rhs, k3) {
		return rejected
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := h / 6 * (k1[i] - 2*k2[i] + k3[i])
		scale := math.Abs(x[i]) + math.Abs(h*f0[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return StepTrial{State: xNew, Deriv: f2, ErrRatio: errMax / tol}
}

// jacobian estimates df/dstate by forward differences. Probe evaluations run
// through f, so they are counted and logged like every other rate-model call.
func jacobian(f DerivFunc, t float64, x, f0 plasma.State) *mat.Dense {
	n := len(x)
	jac := mat.NewDense(n, n, nil)

	floor := 0.0
	for i := range x {
		floor = math.Max(floor, math.Abs(x[i]))
	}
	if floor == 0 {
		floor = 1.0
	}

	probe := x.Clone()
	for j := 0; j < n; j++ {
		delta := sqrtEps * math.Max(math.Abs(x[j]), floor)
		probe[j] = x[j] + delta
		fj := f(t, probe)
		probe[j] = x[j]
		for i := 0; i < n; i++ {
			jac.Set(i, j, (fj[i]-f0[i])/delta)
		}
	}
	return jac
}

// solveVec solves lu*dst = rhs, reporting false when the factorization is
// singular to working precision.
func solveVec(lu *mat.LU, rhs, dst plasma.State) bool {
	var sol mat.VecDense
	if err := lu.SolveVecTo(&sol, false, mat.NewVecDense(len(rhs), rhs)); err != nil {
		return false
	}
	for i := range dst {
		dst[i] = sol.AtVec(i)
	}
	return true
}
