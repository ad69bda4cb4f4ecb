package well

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wellsim/internal/phase"
)

var _ = Describe("ControlModeResolver", func() {
	pu := phase.ThreePhase()
	const bhp = 2e7

	Context("producer under single phase surface rate control", func() {
		var m *Model

		BeforeEach(func() {
			ctrl := Control{Mode: SurfaceRate, Target: 100, Distr: phase.Vector{1, 0, 0}}
			m, _ = mustModel(producerDef(ctrl), pu, nil, bhp, 0.3, 0.2)
		})

		It("returns the target for the controlled phase", func() {
			q, err := m.GetQs(phase.Water)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Value()).To(Equal(100.0))
		})

		It("keeps the fraction ratio for the other phases", func() {
			q, err := m.GetQs(phase.Oil)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Value()).To(BeNumerically("~", 100*0.5/0.3, 1e-9))

			g, err := m.GetQs(phase.Gas)
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Value()).To(BeNumerically("~", 100*(0.2/0.01)/0.3, 1e-6))
		})

		It("returns zero when the controlled fraction vanishes", func() {
			ctrl := Control{Mode: SurfaceRate, Target: 100, Distr: phase.Vector{1, 0, 0}}
			m, _ = mustModel(producerDef(ctrl), pu, nil, bhp, 1e-8, 0.2)
			q, err := m.GetQs(phase.Oil)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Value()).To(BeZero())
			Expect(q.IsConstant()).To(BeTrue())
		})
	})

	Context("producer under combined liquid rate control", func() {
		It("splits the target between oil and water", func() {
			const target = -250.0
			ctrl := Control{Mode: SurfaceRate, Target: target, Distr: phase.Vector{1, 1, 0}}
			m, _ := mustModel(producerDef(ctrl), pu, nil, bhp, 0.35, 0.15)

			qw, err := m.GetQs(phase.Water)
			Expect(err).NotTo(HaveOccurred())
			qo, err := m.GetQs(phase.Oil)
			Expect(err).NotTo(HaveOccurred())
			Expect(qw.Add(qo).Value()).To(BeNumerically("~", target, 1e-9))

			// the sum carries no derivative with respect to the fractions
			sum := qw.Add(qo)
			for i := 0; i < m.Space().NumWellEq; i++ {
				Expect(m.Space().WellDeriv(sum, i)).To(BeNumerically("~", 0, 1e-9))
			}
		})
	})

	Context("producer under all phase rate control", func() {
		It("distributes the target by surface volume fraction", func() {
			const target = -90.0
			ctrl := Control{Mode: SurfaceRate, Target: target, Distr: phase.Vector{1, 1, 1}}
			m, _ := mustModel(producerDef(ctrl), pu, nil, bhp, 0.2, 0.001)

			total := 0.0
			for _, p := range pu.Phases() {
				q, err := m.GetQs(p)
				Expect(err).NotTo(HaveOccurred())
				total += q.Value()
			}
			Expect(total).To(BeNumerically("~", target, 1e-9))
		})
	})

	Context("producer under pressure control", func() {
		It("scales the total rate by the scaled fraction", func() {
			m, _ := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.04, 0.25, 0.002)
			q, err := m.GetQs(phase.Gas)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Value()).To(BeNumerically("~", -0.04*0.002/0.01, 1e-12))
			Expect(q.Deriv(m.Space().WellSlot(XVar))).To(BeNumerically("~", 0.2, 1e-12))
		})

		It("returns the BHP target as a constant", func() {
			m, _ := mustModel(producerDef(Control{Mode: BHP, Target: 1.5e7}), pu, nil, -0.04, 0.25, 0.002)
			b, err := m.GetBhp()
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Value()).To(Equal(1.5e7))
			Expect(b.IsConstant()).To(BeTrue())
		})

		It("interpolates bhp from the lift table under THP control", func() {
			ctrl := Control{Mode: THP, Target: 2e6, VFPTable: 1}
			m, _ := mustModel(producerDef(ctrl), pu, propsWith(flatProdTable(1, 900)), -0.05, 0.2, 0.003)
			Expect(m.SetPerfDensities([]float64{800, 800})).To(Succeed())

			b, err := m.GetBhp()
			Expect(err).NotTo(HaveOccurred())

			oil := 0.05 * (1 - 0.2 - 0.003)
			dp := HydrostaticCorrection(1000, 900, 800, DefaultParams().Gravity)
			Expect(b.Value()).To(BeNumerically("~", 5e6+2e6+1e8*oil-dp, 1e-3))
			Expect(b.Deriv(m.Space().WellSlot(XVar))).To(BeNumerically("~", -1e8*(1-0.2-0.003), 1e-3))
		})

		It("fails under THP control without its lift table", func() {
			ctrl := Control{Mode: THP, Target: 2e6, VFPTable: 7}
			m, _ := mustModel(producerDef(ctrl), pu, propsWith(flatProdTable(1, 900)), -0.05, 0.2, 0.003)
			_, err := m.GetBhp()
			Expect(err).To(HaveOccurred())
		})
	})

	Context("producer under reservoir rate control", func() {
		It("divides by the distribution weight and falls back when it is zero", func() {
			ctrl := Control{Mode: ReservoirRate, Target: -10, Distr: phase.Vector{0.5, 1, 0}}
			m, _ := mustModel(producerDef(ctrl), pu, nil, bhp, 0.2, 0.3)

			Expect(m.WellVolumeFractionScaled(phase.Water).Value()).To(BeNumerically("~", 0.4, 1e-12))
			Expect(m.WellVolumeFractionScaled(phase.Gas).Value()).To(BeNumerically("~", 0.3, 1e-12))
			q, err := m.GetQs(phase.Oil)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Value()).To(BeNumerically("~", -5, 1e-12))
		})
	})

	Context("injector", func() {
		gasOnly := phase.Vector{0, 0, 1}

		DescribeTable("returns exactly zero for phases it does not inject",
			func(ctrl Control) {
				m, _ := mustModel(injectorDef(gasOnly, ctrl), pu, nil, 3.0, 0, 1)
				for _, p := range []phase.Phase{phase.Water, phase.Oil} {
					q, err := m.GetQs(p)
					Expect(err).NotTo(HaveOccurred())
					Expect(q.Value()).To(Equal(0.0))
					Expect(q.IsConstant()).To(BeTrue())
				}
			},
			Entry("bhp", Control{Mode: BHP, Target: 3e7}),
			Entry("surface rate", Control{Mode: SurfaceRate, Target: 1e3, Distr: gasOnly}),
			Entry("reservoir rate", Control{Mode: ReservoirRate, Target: 1e3, Distr: gasOnly}),
		)

		It("attributes the total rate to the injected phase under BHP", func() {
			m, _ := mustModel(injectorDef(gasOnly, Control{Mode: BHP, Target: 3e7}), pu, nil, 42.0, 0, 1)
			q, err := m.GetQs(phase.Gas)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Value()).To(Equal(42.0))
			Expect(q.Deriv(m.Space().WellSlot(XVar))).To(Equal(1.0))
		})

		It("returns the literal target under surface rate control", func() {
			m, _ := mustModel(injectorDef(gasOnly, Control{Mode: SurfaceRate, Target: 1e3, Distr: gasOnly}), pu, nil, 3e7, 0, 1)
			q, err := m.GetQs(phase.Gas)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Value()).To(Equal(1e3))
			Expect(q.IsConstant()).To(BeTrue())
		})
	})

	Context("with an unknown control mode", func() {
		It("fails naming the well", func() {
			m, _ := mustModel(producerDef(Control{Mode: BHP, Target: 1e7}), pu, nil)
			m.ctrl.Mode = Mode(42)

			_, err := m.GetQs(phase.Oil)
			Expect(errors.Is(err, ErrUnknownControl)).To(BeTrue())
			var werr *Error
			Expect(errors.As(err, &werr)).To(BeTrue())
			Expect(werr.Well).To(Equal("PROD1"))
		})
	})

	Context("for a stopped well", func() {
		It("holds every phase at zero rate", func() {
			m, ws := mustModel(producerDef(Control{Mode: BHP, Target: 1e7}), pu, nil, bhp, 0.3, 0.2)
			ws.Status = Stopped
			Expect(m.SetWellVariables(ws)).To(Succeed())
			Expect(m.CurrentControl().Mode).To(Equal(SurfaceRate))
			for _, p := range pu.Phases() {
				q, err := m.GetQs(p)
				Expect(err).NotTo(HaveOccurred())
				Expect(q.Value()).To(BeZero())
			}
		})
	})
})

var _ = Describe("Volume fractions", func() {
	DescribeTable("sum to one over the active phases",
		func(pu phase.Usage, solution []float64) {
			m, _ := mustModel(producerDef(Control{Mode: BHP, Target: 1e7}), pu, nil, solution...)
			sum := 0.0
			for _, c := range pu.Components() {
				sum += m.WellVolumeFraction(c).Value()
			}
			Expect(sum).To(BeNumerically("~", 1, 1e-14))

			surface := 0.0
			for _, c := range pu.Components() {
				surface += m.WellSurfaceVolumeFraction(c).Value()
			}
			Expect(surface).To(BeNumerically("~", 1, 1e-14))
		},
		Entry("three phase", phase.ThreePhase(), []float64{-1, 0.3, 0.25}),
		Entry("oil water", phase.NewUsage(true, true, false), []float64{-1, 0.7}),
		Entry("gas oil", phase.NewUsage(false, true, true), []float64{-1, 0.01}),
		Entry("water gas", phase.NewUsage(true, false, true), []float64{-1, 0.6}),
		Entry("with solvent", phase.Usage{Active: [phase.NumPhases]bool{true, true, true}, HasSolvent: true}, []float64{-1, 0.2, 0.1, 0.05}),
	)

	It("derives oil with negative unit derivatives", func() {
		pu := phase.ThreePhase()
		m, _ := mustModel(producerDef(Control{Mode: BHP, Target: 1e7}), pu, nil, -1, 0.3, 0.25)
		oil := m.WellVolumeFraction(phase.Oil)
		s := m.Space()
		Expect(s.WellDeriv(oil, XVar)).To(BeZero())
		Expect(s.WellDeriv(oil, 1)).To(Equal(-1.0))
		Expect(s.WellDeriv(oil, 2)).To(Equal(-1.0))
		for i := 0; i < s.NumEq; i++ {
			Expect(oil.Deriv(i)).To(BeZero())
		}
	})

	It("returns zero surface fraction when the scaled sum vanishes", func() {
		pu := phase.NewUsage(true, true, false)
		// water -1/0.5 and oil 2/1 cancel
		ctrl := Control{Mode: ReservoirRate, Target: -1, Distr: phase.Vector{0.5, 1, 0}}
		m, _ := mustModel(producerDef(ctrl), pu, nil, 2e7, -1)
		Expect(m.WellSurfaceVolumeFraction(phase.Water).Value()).To(BeZero())
		Expect(m.WellSurfaceVolumeFraction(phase.Oil).Value()).To(BeZero())
	})
})
