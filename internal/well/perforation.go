package well

import (
	"fmt"

	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/reservoir"
)

// Rates holds one differentiable value per canonical component.
type Rates [phase.MaxComponents]ad.Eval

func (m *Model) PerfDensities() []float64     { return m.perfDensities }
func (m *Model) PerfPressureDiffs() []float64 { return m.perfPressureDiffs }

func (m *Model) SetPerfDensities(rho []float64) error {
	if len(rho) != len(m.perfDensities) {
		return m.fail("set perf densities", fmt.Errorf("%w: %d values for %d connections", ErrStateSize, len(rho), len(m.perfDensities)))
	}
	copy(m.perfDensities, rho)
	return nil
}

func (m *Model) SetPerfPressureDiffs(dp []float64) error {
	if len(dp) != len(m.perfPressureDiffs) {
		return m.fail("set perf pressure diffs", fmt.Errorf("%w: %d values for %d connections", ErrStateSize, len(dp), len(m.perfPressureDiffs)))
	}
	copy(m.perfPressureDiffs, dp)
	return nil
}

// streamComposition is the surface composition of the well stream: the
// injection composition for injectors, the primary variable surface
// fractions for producers.
func (m *Model) streamComposition() phase.Vector {
	var x phase.Vector
	if m.def.Type == Injector {
		x = m.def.CompFrac
	} else {
		for _, c := range m.pu.Components() {
			x[c] = m.WellSurfaceVolumeFraction(c).Value()
		}
	}
	if x.Sum(m.pu) == 0 {
		for _, c := range m.pu.Components() {
			x[c] = 1
		}
	}
	return x
}

// ComputePerfDensities sets the mixture density of the well stream at the
// conditions of every connection. iqs holds the intensive quantities of the
// connection cells in connection order.
func (m *Model) ComputePerfDensities(iqs []reservoir.IntensiveQuantities, surfaceDensity phase.Vector) error {
	if len(iqs) != len(m.def.Connections) {
		return m.fail("compute perf densities", fmt.Errorf("%w: %d cells for %d connections", ErrStateSize, len(iqs), len(m.def.Connections)))
	}
	x := m.streamComposition()
	oilGas := m.pu.IsActive(phase.Oil) && m.pu.IsActive(phase.Gas)

	for i, iq := range iqs {
		mass, vol := 0.0, 0.0
		for _, c := range m.pu.Components() {
			mass += x[c] * surfaceDensity[c]
		}
		rs, rv := iq.Rs.Value(), iq.Rv.Value()
		d := 1 - rs*rv
		for _, c := range m.pu.Components() {
			b := iq.InvB[c].Value()
			if b == 0 {
				continue
			}
			xc := x[c]
			if oilGas && d > 0 {
				switch c {
				case phase.Oil:
					xc = (x[phase.Oil] - rv*x[phase.Gas]) / d
				case phase.Gas:
					xc = (x[phase.Gas] - rs*x[phase.Oil]) / d
				}
			}
			vol += xc / b
		}
		if vol <= 0 {
			m.perfDensities[i] = 0
			continue
		}
		m.perfDensities[i] = mass / vol
	}
	return nil
}

// ComputeConnectionPressureDelta accumulates the hydrostatic pressure
// difference between the reference depth and every connection. Each
// interval uses the density of the connection at its lower end.
func (m *Model) ComputeConnectionPressureDelta() {
	g := m.params.Gravity
	prevDepth := m.def.RefDepth
	acc := 0.0
	for i, conn := range m.def.Connections {
		acc += m.perfDensities[i] * g * (conn.Depth - prevDepth)
		m.perfPressureDiffs[i] = acc
		prevDepth = conn.Depth
	}
}

// ComputePerfRate returns the surface rate of every component through one
// connection. iq is already extended to the combined derivative space and
// mob holds the matching mobilities. Injection rates are positive and
// production rates negative.
func (m *Model) ComputePerfRate(iq reservoir.IntensiveQuantities, mob Rates, bhp ad.Eval, cdp, wellIndex float64) (Rates, error) {
	var cq Rates
	for _, c := range m.pu.Components() {
		cq[c] = m.zero()
	}

	drawdown := iq.Pressure.Sub(bhp.AddConst(cdp))
	oilGas := m.pu.IsActive(phase.Oil) && m.pu.IsActive(phase.Gas)

	if drawdown.Value() > 0 {
		// producing connection
		if !m.def.AllowCrossflow && m.def.Type == Injector {
			return cq, nil
		}
		for _, c := range m.pu.Components() {
			cqp := mob[c].Mul(drawdown).Scale(-wellIndex)
			cq[c] = iq.InvB[c].Mul(cqp)
		}
		if oilGas {
			oil, gas := cq[phase.Oil], cq[phase.Gas]
			cq[phase.Gas] = gas.Add(iq.Rs.Mul(oil))
			cq[phase.Oil] = oil.Add(iq.Rv.Mul(gas))
		}
		return cq, nil
	}

	// injecting connection
	if !m.def.AllowCrossflow && m.def.Type == Producer {
		return cq, nil
	}
	totalMob := m.zero()
	for _, c := range m.pu.Components() {
		totalMob = totalMob.Add(mob[c])
	}
	cqt := totalMob.Mul(drawdown).Scale(-wellIndex)

	var cmix Rates
	for _, c := range m.pu.Components() {
		cmix[c] = m.WellSurfaceVolumeFraction(c)
	}

	volumeRatio := m.zero()
	if m.pu.IsActive(phase.Water) {
		volumeRatio = volumeRatio.Add(cmix[phase.Water].Div(iq.InvB[phase.Water]))
	}
	if oilGas {
		rs, rv := iq.Rs, iq.Rv
		d := ad.Const(1).Sub(rs.Mul(rv))
		if d.Value() == 0 {
			return cq, m.fail("compute perf rate", fmt.Errorf("%w: rs*rv equals 1 at cell", ErrNumerical))
		}
		oil := cmix[phase.Oil].Sub(rv.Mul(cmix[phase.Gas])).Div(d)
		gas := cmix[phase.Gas].Sub(rs.Mul(cmix[phase.Oil])).Div(d)
		volumeRatio = volumeRatio.Add(oil.Div(iq.InvB[phase.Oil])).Add(gas.Div(iq.InvB[phase.Gas]))
	} else {
		for _, p := range []phase.Phase{phase.Oil, phase.Gas} {
			if m.pu.IsActive(p) {
				volumeRatio = volumeRatio.Add(cmix[p].Div(iq.InvB[p]))
			}
		}
	}
	if m.pu.HasSolvent {
		volumeRatio = volumeRatio.Add(cmix[phase.Solvent].Div(iq.InvB[phase.Solvent]))
	}
	if volumeRatio.Value() == 0 {
		return cq, nil
	}

	cqtSurface := cqt.Div(volumeRatio)
	for _, c := range m.pu.Components() {
		cq[c] = cmix[c].Mul(cqtSurface)
	}
	return cq, nil
}

// extend maps intensive quantities to the combined derivative space.
func (m *Model) extend(iq reservoir.IntensiveQuantities) (reservoir.IntensiveQuantities, Rates) {
	var out reservoir.IntensiveQuantities
	var mob Rates
	out.Pressure = m.space.Extend(iq.Pressure)
	out.Rs = m.space.Extend(iq.Rs)
	out.Rv = m.space.Extend(iq.Rv)
	for _, c := range m.pu.Components() {
		out.Saturation[c] = m.space.Extend(iq.Saturation[c])
		out.InvB[c] = m.space.Extend(iq.InvB[c])
		mob[c] = m.space.Extend(iq.Mobility[c])
	}
	return out, mob
}
