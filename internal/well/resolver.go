package well

import (
	"fmt"

	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
)

// fracEps guards single and two phase rate control against a vanishing
// controlled fraction.
const fracEps = 1e-6

// GetBhp returns the bottom-hole pressure expression of the current control.
//
// Under BHP control the target is returned as a constant without a
// derivative with respect to the well unknowns.
func (m *Model) GetBhp() (ad.Eval, error) {
	switch m.ctrl.Mode {
	case BHP:
		return ad.Const(m.ctrl.Target), nil
	case THP:
		return m.bhpFromThp()
	}
	return m.pv.Get(XVar), nil
}

func (m *Model) bhpFromThp() (ad.Eval, error) {
	if len(m.def.Connections) == 0 {
		return ad.Eval{}, m.fail("bhp from thp", ErrNoConnections)
	}
	if m.vfp == nil {
		return ad.Eval{}, m.fail("bhp from thp", fmt.Errorf("no lift tables for control table %d", m.ctrl.VFPTable))
	}
	var rates [phase.NumPhases]ad.Eval
	for _, p := range m.pu.Phases() {
		q, err := m.GetQs(p)
		if err != nil {
			return ad.Eval{}, err
		}
		rates[p] = q
	}
	aqua, liquid, vapour := rates[phase.Water], rates[phase.Oil], rates[phase.Gas]

	var (
		bhp      ad.Eval
		refDepth float64
	)
	if m.def.Type == Injector {
		t, err := m.vfp.Inj(m.ctrl.VFPTable)
		if err != nil {
			return ad.Eval{}, m.fail("bhp from thp", err)
		}
		refDepth = t.DatumDepth
		bhp, err = m.vfp.InjBHP(t.ID, aqua, liquid, vapour, m.ctrl.Target)
		if err != nil {
			return ad.Eval{}, m.fail("bhp from thp", err)
		}
	} else {
		t, err := m.vfp.Prod(m.ctrl.VFPTable)
		if err != nil {
			return ad.Eval{}, m.fail("bhp from thp", err)
		}
		refDepth = t.DatumDepth
		bhp, err = m.vfp.ProdBHP(t.ID, aqua, liquid, vapour, m.ctrl.Target, m.ctrl.ALQ)
		if err != nil {
			return ad.Eval{}, m.fail("bhp from thp", err)
		}
	}

	rho := m.perfDensities[0]
	dp := HydrostaticCorrection(m.def.Connections[0].Depth, refDepth, rho, m.params.Gravity)
	return bhp.AddConst(-dp), nil
}

// GetQs returns the surface rate expression of component c.
func (m *Model) GetQs(c phase.Phase) (ad.Eval, error) {
	target := m.ctrl.Target

	if m.def.Type == Injector {
		if m.def.CompFrac[c] == 0 {
			return m.zero(), nil
		}
		switch m.ctrl.Mode {
		case BHP, THP:
			return m.pv.Get(XVar), nil
		case SurfaceRate, ReservoirRate:
			return ad.Const(target), nil
		}
		return ad.Eval{}, m.fail("get qs", fmt.Errorf("%w: %v", ErrUnknownControl, m.ctrl.Mode))
	}

	switch m.ctrl.Mode {
	case BHP, THP:
		return m.pv.Get(XVar).Mul(m.WellVolumeFractionScaled(c)), nil

	case SurfaceRate:
		switch n := m.ctrl.NumUnderControl(m.pu); {
		case n == 1:
			return m.singlePhaseRate(c, target), nil
		case n == 2:
			combined := m.zero()
			for _, p := range m.pu.Phases() {
				if m.ctrl.Distr[p] == 1.0 {
					combined = combined.Add(m.WellVolumeFractionScaled(p))
				}
			}
			if combined.Value() < fracEps {
				return m.zero(), nil
			}
			return m.WellVolumeFractionScaled(c).Div(combined).Scale(target), nil
		case n >= 3:
			return m.WellSurfaceVolumeFraction(c).Scale(target), nil
		}
		return ad.Eval{}, m.fail("get qs", ErrNoPhaseUnderControl)

	case ReservoirRate:
		return m.WellVolumeFractionScaled(c).Scale(target), nil
	}
	return ad.Eval{}, m.fail("get qs", fmt.Errorf("%w: %v", ErrUnknownControl, m.ctrl.Mode))
}

// singlePhaseRate distributes a single phase target. The other phases keep
// their ratio to the controlled one.
func (m *Model) singlePhaseRate(c phase.Phase, target float64) ad.Eval {
	ctl := phase.Water
	for _, p := range m.pu.Phases() {
		if m.ctrl.Distr[p] > 0 {
			ctl = p
			break
		}
	}
	fCtl := m.WellVolumeFractionScaled(ctl)
	// gas rate targets include solvent
	withSolvent := m.pu.HasSolvent && ctl == phase.Gas
	if withSolvent {
		fCtl = fCtl.Add(m.WellVolumeFractionScaled(phase.Solvent))
	}

	if c == ctl {
		if withSolvent {
			if fCtl.Value() < fracEps {
				return m.zero()
			}
			return ad.Const(target * m.WellVolumeFractionScaled(phase.Gas).Value() / fCtl.Value())
		}
		return ad.Const(target)
	}
	if fCtl.Value() < fracEps {
		return m.zero()
	}
	return m.WellVolumeFractionScaled(c).Div(fCtl).Scale(target)
}

// WellVolumeFraction is the in-well volume fraction of c.
func (m *Model) WellVolumeFraction(c phase.Phase) ad.Eval {
	return m.pv.Fraction(c)
}

// WellVolumeFractionScaled divides the fraction by the distribution weight
// under reservoir rate control (unscaled when the weight is zero) and by
// the surface scaling constant otherwise.
func (m *Model) WellVolumeFractionScaled(c phase.Phase) ad.Eval {
	f := m.WellVolumeFraction(c)
	if m.ctrl.Mode == ReservoirRate {
		if w := m.ctrl.Distr[c]; w > 0 {
			return f.Scale(1 / w)
		}
		return f
	}
	return f.Scale(1 / m.params.SurfaceScaling[c])
}

// WellSurfaceVolumeFraction is the scaled fraction of c over the sum of
// scaled fractions. A zero sum yields zero.
func (m *Model) WellSurfaceVolumeFraction(c phase.Phase) ad.Eval {
	sum := m.zero()
	for _, p := range m.pu.Components() {
		sum = sum.Add(m.WellVolumeFractionScaled(p))
	}
	if sum.Value() == 0 {
		return m.zero()
	}
	return m.WellVolumeFractionScaled(c).Div(sum)
}
