package integrate_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"coronal/internal/integrate"
	"coronal/internal/plasma"
	"coronal/internal/rates"
	"coronal/internal/species"
)

func hydrogenIntegrator() *integrate.Integrator {
	sp, err := species.Lookup("h")
	Expect(err).NotTo(HaveOccurred())
	in, err := integrate.New(rates.NewCoronal(sp), integrate.Options{})
	Expect(err).NotTo(HaveOccurred())
	return in
}

var _ = Describe("coronal equilibration", func() {
	// Hydrogen at 50 eV ionizes hard: from a pure ground-stage start the
	// neutral stage must only ever lose density and the ionized stage only
	// ever gain it, with the total carried unchanged.
	const (
		total = 1e20
		slack = 1e-6 * total
	)
	var res *integrate.Result

	BeforeEach(func() {
		in := hydrogenIntegrator()
		times := floats.LogSpan(make([]float64, 5), 1e-6, 1e2)
		var err error
		res, err = in.Run(context.Background(),
			plasma.Conditions{Te: 50, Ne: 1e20},
			plasma.State{total, 0}, times)
		Expect(err).NotTo(HaveOccurred())
	})

	It("drains the ground stage monotonically", func() {
		for i := 1; i < len(res.States); i++ {
			Expect(res.States[i][0]).To(BeNumerically("<=", res.States[i-1][0]+slack))
		}
	})

	It("fills the ionized stage monotonically", func() {
		for i := 1; i < len(res.States); i++ {
			Expect(res.States[i][1]).To(BeNumerically(">=", res.States[i-1][1]-slack))
		}
	})

	It("conserves the total population at every output row", func() {
		for _, row := range res.States {
			Expect(row.Total()).To(BeNumerically("~", total, 1e-4*total))
		}
	})

	It("resamples a radiated power value onto every output time", func() {
		prad := res.Series.Scalar[plasma.ChanPrad]
		Expect(prad).To(HaveLen(len(res.Times)))
		for _, p := range prad {
			Expect(p).To(BeNumerically(">=", 0))
		}
	})
})

var _ = Describe("refuelling equilibrium", func() {
	It("stabilizes stage occupancies instead of draining to equilibrium", func() {
		in := hydrogenIntegrator()
		cond := plasma.Conditions{Te: 50, Ne: 1e20, RefuelRate: 1e3}
		times := floats.LogSpan(make([]float64, 50), 1e-6, 1e2)
		start := plasma.GroundState(2, 1e19)

		res, err := in.Run(context.Background(), cond, start, times)
		Expect(err).NotTo(HaveOccurred())

		last := res.States[len(res.States)-1]
		prev := res.States[len(res.States)-2]
		for k := range last {
			fLast := last[k] / last.Total()
			fPrev := prev[k] / prev.Total()
			Expect(math.Abs(fLast-fPrev)).To(BeNumerically("<", 1e-3),
				"stage %d occupancy still moving", k)
		}

		// Refuelling holds a standing neutral population that pure coronal
		// equilibrium would not.
		Expect(last[0]).To(BeNumerically(">", 0))
		Expect(last[1] / last.Total()).To(BeNumerically(">", 0.9))
	})
})
