package well

import (
	"github.com/san-kum/wellsim/internal/convergence"
	"github.com/san-kum/wellsim/internal/phase"
)

// GetWellConvergence scores the residual of the last assembly. Each
// component equation is scaled by the average formation volume factor of
// its component.
func (m *Model) GetWellConvergence(ws *SingleWellState, bAvg phase.Vector, tol convergence.Tolerances, relax bool) convergence.Report {
	res := m.Residual()
	scale := make([]float64, len(res))
	for k, c := range m.pu.Components() {
		scale[k] = bAvg[c]
	}
	r := convergence.Evaluate(m.def.Name, res, scale, tol, relax, ws.Status == Stopped)
	for _, f := range r.Failures {
		if f.Severity >= convergence.TooLarge {
			m.logger.Warn("well residual out of range", "eq", f.Equation, "residual", f.Residual, "severity", f.Severity.String())
		}
	}
	return r
}
