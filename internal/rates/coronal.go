// Package rates implements the analytic coronal rate model. Ionization rate
// coefficients follow the Voronov fit tabulated in the species registry;
// recombination uses the hydrogenic radiative form. Radiated and cooling
// powers combine bremsstrahlung, recombination radiation and the ionization
// potential sink.
package rates

import (
	"math"

	"coronal/internal/plasma"
	"coronal/internal/species"
)

const (
	// J per eV.
	electronCharge = 1.602176634e-19
	// Bremsstrahlung emission constant, W m^3, with Te in keV.
	bremsCoeff = 5.35e-37
	// Hydrogenic radiative recombination constant, m^3 s^-1 eV^1/2.
	radRecCoeff = 2.6e-19
)

// Coronal evaluates stage population derivatives and diagnostic channels for
// a single impurity species in a fixed electron background.
type Coronal struct {
	sp species.Species
}

func NewCoronal(sp species.Species) *Coronal { return &Coronal{sp: sp} }

func (c *Coronal) Stages() int              { return c.sp.Stages() }
func (c *Coronal) Species() species.Species { return c.sp }

// voronov is the fitted ionization rate coefficient out of one charge state,
// m^3/s. te in eV.
func voronov(st species.Stage, te float64) float64 {
	u := st.PotentialEV / te
	return st.A * (1 + st.P*math.Sqrt(u)) / (st.X + u) * math.Pow(u, st.K) * math.Exp(-u)
}

// radRecomb is the radiative recombination rate coefficient for charge z,
// m^3/s. te in eV.
func radRecomb(z int, te float64) float64 {
	return radRecCoeff * float64(z*z) / math.Sqrt(te)
}

// Evaluate computes dN/dt for every stage plus the diagnostic channels at the
// given electron temperature (eV) and density (m^-3). vzk holds per-stage
// flow velocities; nil means stationary. The input state is read only.
func (c *Coronal) Evaluate(te, ne float64, state plasma.State, vzk []float64) (plasma.State, plasma.Snapshot) {
	z := c.sp.Z

	// Net ionization flux through each transition k -> k+1, m^-3 s^-1.
	// Writing the derivative as differences of these keeps the stage sum
	// telescoping, so total impurity density is conserved.
	flux := make([]float64, z)
	for k := 0; k < z; k++ {
		ion := voronov(c.sp.Ionization[k], te) * state[k]
		rec := radRecomb(k+1, te) * state[k+1]
		flux[k] = ne * (ion - rec)
	}

	deriv := make(plasma.State, z+1)
	deriv[0] = -flux[0]
	for k := 1; k < z; k++ {
		deriv[k] = flux[k-1] - flux[k]
	}
	deriv[z] = flux[z-1]

	// Electron source: one electron per net ionization.
	dNe := 0.0
	for k := 0; k < z; k++ {
		dNe += flux[k]
	}

	// Powers, W/m^3. Recombination photons carry the binding energy of the
	// captured level plus the thermal energy of the captured electron;
	// ionization moves potential energy out of the electrons without
	// radiating it, so it enters Pcool but not Prad.
	teKeV := te * 1e-3
	prad, pcool := 0.0, 0.0
	for k := 1; k <= z; k++ {
		chi := c.sp.Ionization[k-1].PotentialEV
		brems := bremsCoeff * float64(k*k) * ne * state[k] * math.Sqrt(teKeV)
		recRad := ne * state[k] * radRecomb(k, te) * (chi + te) * electronCharge
		prad += brems + recRad
	}
	pcool = prad
	for k := 0; k < z; k++ {
		chi := c.sp.Ionization[k].PotentialEV
		pcool += ne * state[k] * voronov(c.sp.Ionization[k], te) * chi * electronCharge
	}

	// Particle flux diagnostics split by charge.
	stageFlux := make([]float64, z+1)
	ionFlux, neutralFlux := 0.0, 0.0
	for k := 0; k <= z; k++ {
		v := 0.0
		if k < len(vzk) {
			v = vzk[k]
		}
		stageFlux[k] = state[k] * v
		if k == 0 {
			neutralFlux = stageFlux[k]
		} else {
			ionFlux += stageFlux[k]
		}
	}

	snap := plasma.Snapshot{
		plasma.ChanDeriv:       deriv.Clone(),
		plasma.ChanPrad:        {prad},
		plasma.ChanPcool:       {pcool},
		plasma.ChanStageFlux:   stageFlux,
		plasma.ChanElecDeriv:   {dNe},
		plasma.ChanIonFlux:     {ionFlux},
		plasma.ChanNeutralDens: {deriv[0]},
		plasma.ChanNeutralFlux: {neutralFlux},
	}
	return deriv, snap
}
