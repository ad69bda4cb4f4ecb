package well

import (
	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
)

// InitializeState gives ws a starting point for the Newton loop: rates
// from the inflow of every connection at the current bhp, moved onto the
// target of the control in force. Connection pressure differences must
// already be computed.
func (m *Model) InitializeState(res Reservoir, ws *SingleWellState) error {
	ctrl, err := m.controlFor(ws, ws.Control)
	if err != nil {
		return err
	}
	if ctrl.Mode == BHP {
		ws.BHP = ctrl.Target
	}
	// the injecting branch reads the stream composition from the fractions
	ws.SurfaceRates = phase.Vector{}
	if err := m.UpdatePrimaryVariables(ws); err != nil {
		return err
	}
	if err := m.SetWellVariables(ws); err != nil {
		return err
	}

	bhp := ad.Const(ws.BHP)
	var q phase.Vector
	for perf, conn := range m.def.Connections {
		iqRes, err := res.Quantities(conn.Cell)
		if err != nil {
			return m.fail("initialize", err)
		}
		iq, mob := m.extend(iqRes)
		cq, err := m.ComputePerfRate(iq, mob, bhp, m.perfPressureDiffs[perf], conn.WellIndex)
		if err != nil {
			return err
		}
		for _, c := range m.pu.Components() {
			ws.PerfRates[perf][c] = cq[c].Value()
			q[c] += cq[c].Value()
		}
		ws.PerfPress[perf] = ws.BHP + m.perfPressureDiffs[perf]
	}
	ws.SurfaceRates = q

	switch ctrl.Mode {
	case SurfaceRate, ReservoirRate:
		err = m.UpdateWellStateWithTarget(ws)
	default:
		err = m.UpdatePrimaryVariables(ws)
	}
	if err != nil {
		return err
	}
	return m.SetWellVariables(ws)
}
