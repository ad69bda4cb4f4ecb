package well

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/wellsim/internal/reservoir"
)

// Reservoir supplies intensive quantities of perforated cells.
type Reservoir interface {
	Quantities(cell int) (reservoir.IntensiveQuantities, error)
}

// CellContribution is what one connection adds to the reservoir equations
// of its cell: a residual and a cell-cell Jacobian block, both in reservoir
// primary variable ordering.
type CellContribution struct {
	Cell     int
	Residual []float64
	Jacobian *mat.Dense
}

// system is the well-local part of the linearised equations:
//
//	[ A  C ] [ x  ]   [ r  ]
//	[ B  D ] [ xw ] = [ rw ]
//
// B and C are stored per connection.
type system struct {
	numEq, numWellEq int

	B    []*mat.Dense // numWellEq x numEq
	C    []*mat.Dense // numEq x numWellEq
	D    *mat.Dense
	invD *mat.Dense
	res  *mat.VecDense
}

func newSystem(numEq, numWellEq, nConn int) system {
	s := system{
		numEq:     numEq,
		numWellEq: numWellEq,
		B:         make([]*mat.Dense, nConn),
		C:         make([]*mat.Dense, nConn),
		D:         mat.NewDense(numWellEq, numWellEq, nil),
		invD:      mat.NewDense(numWellEq, numWellEq, nil),
		res:       mat.NewVecDense(numWellEq, nil),
	}
	for i := range s.B {
		s.B[i] = mat.NewDense(numWellEq, numEq, nil)
		s.C[i] = mat.NewDense(numEq, numWellEq, nil)
	}
	return s
}

func (s *system) reset() {
	for i := range s.B {
		s.B[i].Zero()
		s.C[i].Zero()
	}
	s.D.Zero()
	s.invD.Zero()
	s.res.Zero()
}

// ComputeAccumWell stores the surface volume fractions at the start of the
// timestep. It must follow SetWellVariables.
func (m *Model) ComputeAccumWell() {
	for _, c := range m.pu.Components() {
		m.f0[c] = m.WellSurfaceVolumeFraction(c).Value()
	}
}

// AssembleWellEq linearises the well equations for one Newton iteration.
// Connection rates and pressures are written to ws; the returned
// contributions belong to the reservoir equations of the perforated cells.
func (m *Model) AssembleWellEq(res Reservoir, dt float64, ws *SingleWellState) ([]CellContribution, error) {
	if dt <= 0 {
		return nil, m.fail("assemble", fmt.Errorf("%w: timestep %g", ErrNumerical, dt))
	}
	if len(ws.PerfRates) != len(m.def.Connections) || len(ws.PerfPress) != len(m.def.Connections) {
		return nil, m.fail("assemble", ErrStateSize)
	}
	m.sys.reset()

	bhp, err := m.GetBhp()
	if err != nil {
		return nil, err
	}
	eff := m.def.efficiency()
	comps := m.pu.Components()
	numEq := m.space.NumEq

	out := make([]CellContribution, len(m.def.Connections))
	for perf, conn := range m.def.Connections {
		iqRes, err := res.Quantities(conn.Cell)
		if err != nil {
			return nil, m.fail("assemble", err)
		}
		iq, mob := m.extend(iqRes)
		cdp := m.perfPressureDiffs[perf]
		cq, err := m.ComputePerfRate(iq, mob, bhp, cdp, conn.WellIndex)
		if err != nil {
			return nil, err
		}

		cc := CellContribution{
			Cell:     conn.Cell,
			Residual: make([]float64, numEq),
			Jacobian: mat.NewDense(numEq, numEq, nil),
		}
		for k, c := range comps {
			q := cq[c].Scale(eff)
			r := m.space.Restrict(q)

			cc.Residual[k] -= q.Value()
			m.sys.res.SetVec(k, m.sys.res.AtVec(k)-q.Value())
			for j := 0; j < numEq; j++ {
				cc.Jacobian.Set(k, j, -r.Deriv(j))
				m.sys.B[perf].Set(k, j, -r.Deriv(j))
			}
			for j := 0; j < m.sys.numWellEq; j++ {
				dq := m.space.WellDeriv(q, j)
				m.sys.C[perf].Set(k, j, -dq)
				m.sys.D.Set(k, j, m.sys.D.At(k, j)-dq)
			}
			ws.PerfRates[perf][c] = cq[c].Value()
		}
		ws.PerfPress[perf] = bhp.Value() + cdp
		out[perf] = cc
	}

	// wellbore storage and the control equation
	volume := m.params.WellboreVolume
	for k, c := range comps {
		loc := m.WellSurfaceVolumeFraction(c).AddConst(-m.f0[c]).Scale(volume / dt)
		qs, err := m.GetQs(c)
		if err != nil {
			return nil, err
		}
		loc = loc.Add(qs.Scale(eff))
		m.sys.res.SetVec(k, m.sys.res.AtVec(k)+loc.Value())
		for j := 0; j < m.sys.numWellEq; j++ {
			m.sys.D.Set(k, j, m.sys.D.At(k, j)+m.space.WellDeriv(loc, j))
		}
	}

	if err := m.invertD(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Model) invertD() error {
	err := m.sys.invD.Inverse(m.sys.D)
	if err == nil {
		return nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		m.logger.Debug("ill-conditioned well system", "cond", float64(cond))
		return nil
	}
	return m.fail("invert D", fmt.Errorf("%w: %v", ErrSingularSystem, err))
}

// Residual returns a copy of the well residual of the last assembly.
func (m *Model) Residual() []float64 {
	out := make([]float64, m.sys.numWellEq)
	for i := range out {
		out[i] = m.sys.res.AtVec(i)
	}
	return out
}

// bx sums B*x over the connections. x is indexed by cell.
func (m *Model) bx(x [][]float64) *mat.VecDense {
	acc := mat.NewVecDense(m.sys.numWellEq, nil)
	tmp := mat.NewVecDense(m.sys.numWellEq, nil)
	for perf, conn := range m.def.Connections {
		tmp.MulVec(m.sys.B[perf], mat.NewVecDense(m.sys.numEq, x[conn.Cell]))
		acc.AddVec(acc, tmp)
	}
	return acc
}

// subtractC subtracts C*v from the rows of every perforated cell.
func (m *Model) subtractC(v *mat.VecDense, out [][]float64) {
	tmp := mat.NewVecDense(m.sys.numEq, nil)
	for perf, conn := range m.def.Connections {
		tmp.MulVec(m.sys.C[perf], v)
		for i := 0; i < m.sys.numEq; i++ {
			out[conn.Cell][i] -= tmp.AtVec(i)
		}
	}
}

// Apply adds the well part of the Schur complement operator,
// Ax -= C D^-1 B x.
func (m *Model) Apply(x, ax [][]float64) {
	v := mat.NewVecDense(m.sys.numWellEq, nil)
	v.MulVec(m.sys.invD, m.bx(x))
	m.subtractC(v, ax)
}

// ApplyResidual eliminates the well equations from the reservoir
// residual, r -= C D^-1 rw.
func (m *Model) ApplyResidual(r [][]float64) {
	v := mat.NewVecDense(m.sys.numWellEq, nil)
	v.MulVec(m.sys.invD, m.sys.res)
	m.subtractC(v, r)
}

// RecoverWellSolution returns the well update for a reservoir update x,
// dxw = D^-1 (rw - B x).
func (m *Model) RecoverWellSolution(x [][]float64) []float64 {
	rhs := mat.NewVecDense(m.sys.numWellEq, nil)
	rhs.SubVec(m.sys.res, m.bx(x))
	dx := mat.NewVecDense(m.sys.numWellEq, nil)
	dx.MulVec(m.sys.invD, rhs)
	return dx.RawVector().Data
}

// SolveEqAndUpdateWellState solves the well equations with the reservoir
// held fixed and applies the damped update to ws.
func (m *Model) SolveEqAndUpdateWellState(ws *SingleWellState) ([]float64, error) {
	dx := mat.NewVecDense(m.sys.numWellEq, nil)
	dx.MulVec(m.sys.invD, m.sys.res)
	d := dx.RawVector().Data
	return d, m.UpdateWellState(d, ws)
}
