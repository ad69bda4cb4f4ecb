// Package reservoir provides the cell-level quantities a well couples to:
// pressure, inverse formation volume factors, mobilities and dissolution
// ratios, each differentiated with respect to the cell primary variables.
//
// The fluid model is deliberately small. Formation volume factors vary
// linearly with pressure,
//
//	b(p) = b0 * (1 + c * (p - pref))
//
// and relative permeabilities follow Corey curves on normalised saturation.
package reservoir

import (
	"errors"
	"fmt"

	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
)

var (
	ErrCellOutOfRange = errors.New("reservoir: cell index out of range")
	ErrInvalidFluid   = errors.New("reservoir: invalid fluid")
)

// Fluid holds per-component properties. Solvent uses the gas entries when
// its own are zero.
type Fluid struct {
	SurfaceDensity  phase.Vector // kg/m^3 at surface conditions
	RefPressure     float64      // Pa
	B0              phase.Vector // formation volume factor at RefPressure
	Compressibility phase.Vector // 1/Pa
	Viscosity       phase.Vector // Pa*s
	CoreyExp        phase.Vector
	ResidualSat     phase.Vector

	Rs float64 // dissolved gas-oil ratio
	Rv float64 // vaporised oil-gas ratio
}

func DefaultFluid() Fluid {
	return Fluid{
		SurfaceDensity:  phase.Vector{1000, 800, 0.9, 0.9},
		RefPressure:     2e7,
		B0:              phase.Vector{1.0, 1.2, 0.005, 0.005},
		Compressibility: phase.Vector{4.5e-10, 1.5e-9, 5e-8, 5e-8},
		Viscosity:       phase.Vector{5e-4, 1.5e-3, 2e-5, 2e-5},
		CoreyExp:        phase.Vector{2, 2, 2, 2},
		ResidualSat:     phase.Vector{0.2, 0.1, 0.05, 0},
	}
}

// Validate checks the properties of the active components.
func (f Fluid) Validate(u phase.Usage) error {
	for _, c := range u.Components() {
		if f.prop(f.B0, c) <= 0 {
			return fmt.Errorf("%w: %v formation volume factor must be positive", ErrInvalidFluid, c)
		}
		if f.prop(f.Viscosity, c) <= 0 {
			return fmt.Errorf("%w: %v viscosity must be positive", ErrInvalidFluid, c)
		}
	}
	sr := 0.0
	for _, p := range u.Phases() {
		sr += f.ResidualSat[p]
	}
	if sr >= 1 {
		return fmt.Errorf("%w: residual saturations sum to %g", ErrInvalidFluid, sr)
	}
	return nil
}

func (f Fluid) prop(v phase.Vector, c phase.Phase) float64 {
	if c == phase.Solvent && v[phase.Solvent] == 0 {
		return v[phase.Gas]
	}
	return v[c]
}

// invB returns 1/B as a function of the pressure variable.
func (f Fluid) invB(p ad.Eval, c phase.Phase) ad.Eval {
	b0 := 1 / f.prop(f.B0, c)
	return p.AddConst(-f.RefPressure).Scale(f.prop(f.Compressibility, c)).AddConst(1).Scale(b0)
}

// relperm is a Corey curve on saturation normalised by the residual sum.
// Outside the mobile range it is constant.
func (f Fluid) relperm(s ad.Eval, c phase.Phase, srSum float64) ad.Eval {
	sr := f.prop(f.ResidualSat, c)
	se := s.AddConst(-sr).Scale(1 / (1 - srSum))
	switch {
	case se.Value() <= 0:
		return ad.Constant(0, s.Size())
	case se.Value() >= 1:
		return ad.Constant(1, s.Size())
	}
	return se.Pow(f.prop(f.CoreyExp, c))
}
