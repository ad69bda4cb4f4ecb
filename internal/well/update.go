package well

import (
	"fmt"
	"math"

	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
)

// UpdateWellState applies the Newton update x -= dx to the well solution
// with fraction and bhp damping, then writes back bhp, surface rates and thp
// consistent with the control in force.
func (m *Model) UpdateWellState(dx []float64, ws *SingleWellState) error {
	n := m.layout.NumWellEq()
	if len(dx) != n || len(ws.Solution) != n {
		return m.fail("update well state", ErrStateSize)
	}
	old := append([]float64(nil), ws.Solution...)

	for _, c := range m.pu.Independent() {
		s := m.layout.FracSlot(c)
		step := math.Copysign(math.Min(math.Abs(dx[s]), m.params.DwellFractionMax), dx[s])
		ws.Solution[s] = old[s] - step
	}

	F := m.fractionsFromSolution(ws.Solution)
	m.normalizeFractions(&F)
	for _, c := range m.pu.Independent() {
		ws.Solution[m.layout.FracSlot(c)] = F[c]
	}

	ctrl, err := m.controlFor(ws, ws.Control)
	if err != nil {
		return err
	}
	F = m.scaleFractions(F, ctrl)

	switch ctrl.Mode {
	case BHP, THP:
		ws.Solution[XVar] = old[XVar] - dx[XVar]
		m.ratesFromTotal(ws, F)
		if ctrl.Mode == BHP {
			ws.BHP = ctrl.Target
		} else {
			bhp, err := m.bhpFromRates(ctrl, ws.SurfaceRates)
			if err != nil {
				return err
			}
			ws.BHP = bhp
		}
	case SurfaceRate, ReservoirRate:
		limit := math.Abs(old[XVar]) * m.params.DbhpMaxRel
		step := math.Copysign(math.Min(math.Abs(dx[XVar]), limit), dx[XVar])
		ws.Solution[XVar] = math.Max(old[XVar]-step, m.params.MinBHP)
		ws.BHP = ws.Solution[XVar]
		m.ratesFromTarget(ws, F, ctrl)
	default:
		return m.fail("update well state", fmt.Errorf("%w: %v", ErrUnknownControl, ctrl.Mode))
	}

	return m.updateThp(ws)
}

func (m *Model) fractionsFromSolution(sol []float64) phase.Vector {
	var F phase.Vector
	d := m.pu.Derived()
	F[d] = 1
	for _, c := range m.pu.Independent() {
		F[c] = sol[m.layout.FracSlot(c)]
		F[d] -= F[c]
	}
	return F
}

// normalizeFractions removes negative fractions one at a time, rescaling
// the others so the simplex sum is kept.
func (m *Model) normalizeFractions(F *phase.Vector) {
	order := append(m.pu.Independent(), m.pu.Derived())
	for _, c := range order {
		if F[c] >= 0 {
			continue
		}
		for _, o := range order {
			if o != c {
				F[o] /= 1 - F[c]
			}
		}
		F[c] = 0
	}
}

// scaleFractions converts fractions to the rate basis of ctrl.
func (m *Model) scaleFractions(F phase.Vector, ctrl Control) phase.Vector {
	g := m.rateWeights(ctrl)
	var out phase.Vector
	for _, c := range m.pu.Components() {
		if g[c] > 0 {
			out[c] = F[c] / g[c]
		}
	}
	return out
}

func (m *Model) ratesFromTotal(ws *SingleWellState, F phase.Vector) {
	ws.SurfaceRates = phase.Vector{}
	for _, c := range m.pu.Components() {
		if m.def.Type == Injector {
			ws.SurfaceRates[c] = m.def.CompFrac[c] * ws.Solution[XVar]
		} else {
			ws.SurfaceRates[c] = ws.Solution[XVar] * F[c]
		}
	}
}

func (m *Model) ratesFromTarget(ws *SingleWellState, F phase.Vector, ctrl Control) {
	ws.SurfaceRates = phase.Vector{}
	if ctrl.Mode == ReservoirRate {
		for _, c := range m.pu.Components() {
			ws.SurfaceRates[c] = F[c] * ctrl.Target
		}
		return
	}
	if m.def.Type == Injector {
		for _, c := range m.pu.Components() {
			ws.SurfaceRates[c] = m.def.CompFrac[c] * ctrl.Target
		}
		return
	}
	fTarget := 0.0
	for _, p := range m.pu.Phases() {
		fTarget += ctrl.Distr[p] * F[p]
	}
	if fTarget == 0 {
		return
	}
	for _, c := range m.pu.Components() {
		ws.SurfaceRates[c] = F[c] * ctrl.Target / fTarget
	}
}

// bhpFromRates evaluates the lift table of a THP control at fixed rates and
// corrects it to the depth of the first connection.
func (m *Model) bhpFromRates(ctrl Control, q phase.Vector) (float64, error) {
	ref, err := m.vfpDatum(ctrl)
	if err != nil {
		return 0, err
	}
	aqua, liquid, vapour := ad.Const(q[phase.Water]), ad.Const(q[phase.Oil]), ad.Const(q[phase.Gas])
	var bhp ad.Eval
	if m.def.Type == Injector {
		bhp, err = m.vfp.InjBHP(ctrl.VFPTable, aqua, liquid, vapour, ctrl.Target)
	} else {
		bhp, err = m.vfp.ProdBHP(ctrl.VFPTable, aqua, liquid, vapour, ctrl.Target, ctrl.ALQ)
	}
	if err != nil {
		return 0, m.fail("bhp from rates", err)
	}
	return bhp.Value() - m.hydrostatic(ref), nil
}

func (m *Model) vfpDatum(ctrl Control) (float64, error) {
	if m.vfp == nil {
		return 0, m.fail("lift table", fmt.Errorf("no lift tables for table %d", ctrl.VFPTable))
	}
	if m.def.Type == Injector {
		t, err := m.vfp.Inj(ctrl.VFPTable)
		if err != nil {
			return 0, m.fail("lift table", err)
		}
		return t.DatumDepth, nil
	}
	t, err := m.vfp.Prod(ctrl.VFPTable)
	if err != nil {
		return 0, m.fail("lift table", err)
	}
	return t.DatumDepth, nil
}

func (m *Model) hydrostatic(vfpRefDepth float64) float64 {
	return HydrostaticCorrection(m.def.Connections[0].Depth, vfpRefDepth, m.perfDensities[0], m.params.Gravity)
}

// CalculateTHP returns the tubing-head pressure matching the bhp and rates
// of ws through the lift table of ctrl.
func (m *Model) CalculateTHP(ctrl Control, ws *SingleWellState) (float64, error) {
	ref, err := m.vfpDatum(ctrl)
	if err != nil {
		return 0, err
	}
	q := ws.SurfaceRates
	bhp := ws.BHP + m.hydrostatic(ref)
	var thp float64
	if m.def.Type == Injector {
		thp, err = m.vfp.InjTHP(ctrl.VFPTable, q[phase.Water], q[phase.Oil], q[phase.Gas], bhp)
	} else {
		thp, err = m.vfp.ProdTHP(ctrl.VFPTable, q[phase.Water], q[phase.Oil], q[phase.Gas], bhp, ctrl.ALQ)
	}
	if err != nil {
		return 0, m.fail("calculate thp", err)
	}
	return thp, nil
}

// updateThp sets the thp of ws from the first THP constraint of the well:
// its target when it is in force, the lift table inversion otherwise. Wells
// without a THP constraint report zero.
func (m *Model) updateThp(ws *SingleWellState) error {
	for i, c := range m.def.Controls {
		if c.Mode != THP {
			continue
		}
		if i == ws.Control && ws.Status != Stopped {
			ws.THP = c.Target
			return nil
		}
		thp, err := m.CalculateTHP(c, ws)
		if err != nil {
			return err
		}
		ws.THP = thp
		return nil
	}
	ws.THP = 0
	return nil
}

// rateWeights are the per-component weights of the well total under ctrl:
// the reservoir distribution under ReservoirRate, the surface scaling
// otherwise. scaleFractions divides by the same weights.
func (m *Model) rateWeights(ctrl Control) phase.Vector {
	if ctrl.Mode == ReservoirRate {
		return ctrl.Distr
	}
	return m.params.SurfaceScaling
}

// UpdatePrimaryVariables derives the well solution from the bhp and
// surface rates of ws.
func (m *Model) UpdatePrimaryVariables(ws *SingleWellState) error {
	ctrl, err := m.controlFor(ws, ws.Control)
	if err != nil {
		return err
	}
	n := m.layout.NumWellEq()
	if len(ws.Solution) != n {
		ws.Solution = make([]float64, n)
	}

	g := m.rateWeights(ctrl)
	total, sum := 0.0, 0.0
	for _, c := range m.pu.Components() {
		total += g[c] * ws.SurfaceRates[c]
		sum += ws.SurfaceRates[c]
	}

	switch {
	case ctrl.Mode != BHP && ctrl.Mode != THP:
		ws.Solution[XVar] = ws.BHP
	case m.def.Type == Injector:
		// injector rates are read from XVar unscaled
		ws.Solution[XVar] = sum
	default:
		ws.Solution[XVar] = total
	}

	for _, c := range m.pu.Independent() {
		s := m.layout.FracSlot(c)
		switch {
		case math.Abs(total) > 0:
			ws.Solution[s] = g[c] * ws.SurfaceRates[c] / total
		case m.def.Type == Injector:
			ws.Solution[s] = m.def.CompFrac[c]
		default:
			ws.Solution[s] = 1 / float64(m.pu.NumComponents())
		}
	}
	return nil
}

// UpdateWellStateWithTarget moves ws onto the target of its current
// control and re-derives the primary variables.
func (m *Model) UpdateWellStateWithTarget(ws *SingleWellState) error {
	ctrl, err := m.controlFor(ws, ws.Control)
	if err != nil {
		return err
	}
	target := ctrl.Target

	switch ctrl.Mode {
	case BHP:
		ws.BHP = target
	case THP:
		ws.THP = target
		bhp, err := m.bhpFromRates(ctrl, ws.SurfaceRates)
		if err != nil {
			return err
		}
		ws.BHP = bhp
	case SurfaceRate, ReservoirRate:
		n := ctrl.NumUnderControl(m.pu)
		if n == 0 {
			return m.fail("update with target", ErrNoPhaseUnderControl)
		}
		if m.def.Type == Injector {
			for _, p := range m.pu.Phases() {
				if ctrl.Distr[p] > 0 {
					ws.SurfaceRates[p] = target / ctrl.Distr[p]
				} else {
					ws.SurfaceRates[p] = 0
				}
			}
			break
		}
		under := 0.0
		for _, p := range m.pu.Phases() {
			if ctrl.Distr[p] > 0 {
				under += ws.SurfaceRates[p] * ctrl.Distr[p]
			}
		}
		if under != 0 {
			k := target / under
			for _, c := range m.pu.Components() {
				ws.SurfaceRates[c] *= k
			}
			break
		}
		// no rates to scale: split the target between the controlled phases
		share := target / float64(n)
		for _, p := range m.pu.Phases() {
			if ctrl.Distr[p] > 0 {
				ws.SurfaceRates[p] = share / ctrl.Distr[p]
			} else {
				ws.SurfaceRates[p] = 0
			}
		}
	default:
		return m.fail("update with target", fmt.Errorf("%w: %v", ErrUnknownControl, ctrl.Mode))
	}
	return m.UpdatePrimaryVariables(ws)
}

// constraintBroken reports whether ws violates control c. Producer rate
// targets are negative, so a producer breaks a rate constraint by
// producing more than the target.
func (m *Model) constraintBroken(c Control, ws *SingleWellState) bool {
	var value float64
	switch c.Mode {
	case BHP:
		value = ws.BHP
	case THP:
		value = ws.THP
	case SurfaceRate, ReservoirRate:
		for _, p := range m.pu.Phases() {
			value += c.Distr[p] * ws.SurfaceRates[p]
		}
	default:
		return false
	}
	if m.def.Type == Injector {
		return value > c.Target
	}
	return value < c.Target
}

// UpdateWellControl switches to the first broken constraint in control
// order and moves the state onto its target. It reports whether the
// control changed.
func (m *Model) UpdateWellControl(ws *SingleWellState) (bool, error) {
	if ws.Status != Open {
		return false, nil
	}
	old := ws.Control
	for i, c := range m.def.Controls {
		if i == old {
			continue
		}
		if c.Mode == THP {
			if !m.hasLiftTable(c) {
				continue
			}
			thp, err := m.CalculateTHP(c, ws)
			if err != nil {
				return false, err
			}
			ws.THP = thp
		}
		if m.constraintBroken(c, ws) {
			ws.Control = i
			break
		}
	}
	if ws.Control == old {
		return false, nil
	}
	m.logger.Info("switching control mode",
		"from", m.def.Controls[old].Mode.String(),
		"to", m.def.Controls[ws.Control].Mode.String())
	if err := m.UpdateWellStateWithTarget(ws); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Model) hasLiftTable(c Control) bool {
	_, err := m.vfpDatum(c)
	return err == nil
}
