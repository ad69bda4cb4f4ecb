package well

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/wellsim/internal/convergence"
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/reservoir"
)

const testDt = 86400.0

// prepare runs the per-iteration setup that precedes assembly.
func prepare(m *Model, ws *SingleWellState, g *reservoir.Grid) {
	Expect(m.SetWellVariables(ws)).To(Succeed())
	iqs := make([]reservoir.IntensiveQuantities, m.NumConnections())
	for i, conn := range m.Definition().Connections {
		iq, err := g.Quantities(conn.Cell)
		Expect(err).NotTo(HaveOccurred())
		iqs[i] = iq
	}
	Expect(m.ComputePerfDensities(iqs, g.Fluid.SurfaceDensity)).To(Succeed())
	m.ComputeConnectionPressureDelta()
}

// solveWell iterates the well equations with the reservoir held fixed and
// returns the number of iterations used.
func solveWell(m *Model, ws *SingleWellState, g *reservoir.Grid) int {
	Expect(m.SetWellVariables(ws)).To(Succeed())
	m.ComputeAccumWell()
	for it := 0; it < 30; it++ {
		prepare(m, ws, g)
		_, err := m.AssembleWellEq(g, testDt, ws)
		Expect(err).NotTo(HaveOccurred())
		r := m.GetWellConvergence(ws, g.AverageB(), convergence.DefaultTolerances(), false)
		if r.Converged() && maxAbs(m.Residual()) < 1e-12 {
			return it
		}
		_, err = m.SolveEqAndUpdateWellState(ws)
		Expect(err).NotTo(HaveOccurred())
	}
	Fail("well equations did not converge")
	return -1
}

func maxAbs(v []float64) float64 {
	out := 0.0
	for _, x := range v {
		out = math.Max(out, math.Abs(x))
	}
	return out
}

func perfTotal(ws *SingleWellState, c phase.Phase) float64 {
	s := 0.0
	for _, q := range ws.PerfRates {
		s += q[c]
	}
	return s
}

var _ = Describe("Well equation assembly", func() {
	pu := phase.ThreePhase()
	var g *reservoir.Grid

	BeforeEach(func() {
		g = testGrid(pu, 2.5e7, 2.5e7)
	})

	It("converges a producer under bhp control", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.05, 0.3, 0.1)
		solveWell(m, ws, g)

		Expect(ws.BHP).To(Equal(1.5e7))
		for _, c := range pu.Components() {
			Expect(ws.SurfaceRates[c]).To(BeNumerically("<", 0))
			Expect(ws.SurfaceRates[c]).To(BeNumerically("~", perfTotal(ws, c), 1e-6))
		}
		Expect(ws.PerfPress[0]).To(Equal(1.5e7))
		Expect(ws.PerfPress[1]).To(BeNumerically(">", 1.5e7))
	})

	It("converges a producer under liquid rate control", func() {
		lrat := Control{Mode: SurfaceRate, Target: -0.01, Distr: phase.Vector{1, 1, 0}}
		m, ws := mustModel(producerDef(lrat), pu, nil, 2e7, 0.3, 0.1)
		solveWell(m, ws, g)

		Expect(ws.SurfaceRates[phase.Water] + ws.SurfaceRates[phase.Oil]).To(BeNumerically("~", -0.01, 1e-9))
		Expect(ws.BHP).To(BeNumerically("<", 2.5e7))
		Expect(ws.BHP).To(BeNumerically(">", DefaultParams().MinBHP))
		Expect(perfTotal(ws, phase.Water) + perfTotal(ws, phase.Oil)).To(BeNumerically("~", -0.01, 1e-6))
	})

	It("returns cell contributions matching the connection rates", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.05, 0.3, 0.1)
		prepare(m, ws, g)
		out, err := m.AssembleWellEq(g, testDt, ws)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(2))
		for perf, cc := range out {
			Expect(cc.Cell).To(Equal(perf))
			for k, c := range pu.Components() {
				Expect(cc.Residual[k]).To(Equal(-ws.PerfRates[perf][c]))
			}
			Expect(cc.Jacobian.At(0, 0)).NotTo(BeZero())
		}
	})

	It("matches finite differences in the well block", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.05, 0.3, 0.1)
		m.ComputeAccumWell()
		prepare(m, ws, g)
		_, err := m.AssembleWellEq(g, testDt, ws)
		Expect(err).NotTo(HaveOccurred())
		base := m.Residual()
		D := mat.DenseCopyOf(m.sys.D)

		steps := []float64{1e-8, 1e-7, 1e-7}
		for j, h := range steps {
			p := ws.Clone()
			p.Solution[j] += h
			// connection densities stay frozen at the base state
			Expect(m.SetWellVariables(&p)).To(Succeed())
			_, err := m.AssembleWellEq(g, testDt, &p)
			Expect(err).NotTo(HaveOccurred())
			r := m.Residual()
			for k := range r {
				fd := (r[k] - base[k]) / h
				Expect(fd).To(BeNumerically("~", D.At(k, j), 1e-5*math.Max(1, math.Abs(D.At(k, j)))))
			}
		}
	})

	It("recovers the local solve when the reservoir is fixed", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.05, 0.3, 0.1)
		prepare(m, ws, g)
		_, err := m.AssembleWellEq(g, testDt, ws)
		Expect(err).NotTo(HaveOccurred())

		x := make([][]float64, g.NumCells())
		for i := range x {
			x[i] = make([]float64, reservoir.NumEq(pu))
		}
		dxw := m.RecoverWellSolution(x)

		ax := make([][]float64, g.NumCells())
		for i := range ax {
			ax[i] = make([]float64, reservoir.NumEq(pu))
		}
		m.Apply(x, ax)
		for _, row := range ax {
			Expect(maxAbs(row)).To(BeZero())
		}

		dx, err := m.SolveEqAndUpdateWellState(ws)
		Expect(err).NotTo(HaveOccurred())
		Expect(dxw).To(Equal(dx))
	})

	It("eliminates a converged well from the reservoir residual", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.05, 0.3, 0.1)
		solveWell(m, ws, g)

		r := make([][]float64, g.NumCells())
		for i := range r {
			r[i] = make([]float64, reservoir.NumEq(pu))
		}
		m.ApplyResidual(r)
		for _, row := range r {
			Expect(maxAbs(row)).To(BeNumerically("<", 1e-9))
		}
	})

	It("starts a producer from connection inflow", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil)
		prepare(m, ws, g)
		Expect(m.InitializeState(g, ws)).To(Succeed())
		Expect(ws.BHP).To(Equal(1.5e7))
		for _, c := range pu.Components() {
			Expect(ws.SurfaceRates[c]).To(BeNumerically("<", 0))
		}
		Expect(ws.Solution[XVar]).To(BeNumerically("<", 0))
		solveWell(m, ws, g)
		Expect(ws.PerfRates[0][phase.Oil]).To(BeNumerically("<", 0))
	})

	It("starts a rate controlled injector on its target", func() {
		ctrl := Control{Mode: SurfaceRate, Target: 0.01, Distr: phase.Vector{1, 0, 0}}
		m, ws := mustModel(injectorDef(phase.Vector{1, 0, 0}, ctrl), pu, nil)
		ws.BHP = 2.6e7
		prepare(m, ws, g)
		Expect(m.InitializeState(g, ws)).To(Succeed())
		Expect(ws.SurfaceRates[phase.Water]).To(Equal(0.01))
		Expect(ws.Solution[XVar]).To(Equal(2.6e7))
		solveWell(m, ws, g)
		Expect(ws.BHP).To(BeNumerically(">", 2.5e7))
	})

	It("rejects a non-positive timestep", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.05, 0.3, 0.1)
		_, err := m.AssembleWellEq(g, 0, ws)
		Expect(err).To(MatchError(ErrNumerical))
	})

	It("rejects a state sized for another well", func() {
		m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.05, 0.3, 0.1)
		ws.PerfRates = ws.PerfRates[:1]
		_, err := m.AssembleWellEq(g, testDt, ws)
		Expect(err).To(MatchError(ErrStateSize))
	})
})
