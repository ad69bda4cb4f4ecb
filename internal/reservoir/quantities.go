package reservoir

import (
	"fmt"

	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
)

// Cell is the reservoir state of one grid cell.
type Cell struct {
	Pressure   float64
	Saturation phase.Vector
	Depth      float64
}

// IntensiveQuantities are evaluated in the reservoir derivative space of a
// cell. Slot 0 is pressure and slot 1+i is the saturation of the i-th
// independent component. Entries of inactive components are zero.
type IntensiveQuantities struct {
	Pressure   ad.Eval
	Saturation [phase.MaxComponents]ad.Eval
	InvB       [phase.MaxComponents]ad.Eval
	Mobility   [phase.MaxComponents]ad.Eval
	Rs         ad.Eval
	Rv         ad.Eval
}

// NumEq is the reservoir equation count for a phase layout: one per
// active component.
func NumEq(u phase.Usage) int { return u.NumComponents() }

// Evaluate computes the intensive quantities of a cell.
func Evaluate(f Fluid, u phase.Usage, c Cell) IntensiveQuantities {
	n := NumEq(u)
	var iq IntensiveQuantities
	iq.Pressure = ad.Variable(c.Pressure, n, 0)

	derived := u.Derived()
	rest := ad.Constant(1, n)
	for i, comp := range u.Independent() {
		s := ad.Variable(c.Saturation[comp], n, 1+i)
		iq.Saturation[comp] = s
		rest = rest.Sub(s)
	}
	iq.Saturation[derived] = rest

	srSum := 0.0
	for _, comp := range u.Components() {
		srSum += f.prop(f.ResidualSat, comp)
	}
	for _, comp := range u.Components() {
		iq.InvB[comp] = f.invB(iq.Pressure, comp)
		kr := f.relperm(iq.Saturation[comp], comp, srSum)
		iq.Mobility[comp] = kr.Scale(1 / f.prop(f.Viscosity, comp))
	}

	if u.IsActive(phase.Oil) && u.IsActive(phase.Gas) {
		iq.Rs = ad.Constant(f.Rs, n)
		iq.Rv = ad.Constant(f.Rv, n)
	} else {
		iq.Rs = ad.Constant(0, n)
		iq.Rv = ad.Constant(0, n)
	}
	return iq
}

// Grid is the set of cells a run's wells perforate.
type Grid struct {
	Fluid Fluid
	Usage phase.Usage
	Cells []Cell
}

func NewGrid(f Fluid, u phase.Usage, cells []Cell) (*Grid, error) {
	if err := f.Validate(u); err != nil {
		return nil, err
	}
	return &Grid{Fluid: f, Usage: u, Cells: cells}, nil
}

func (g *Grid) NumCells() int { return len(g.Cells) }

func (g *Grid) SurfaceDensity() phase.Vector { return g.Fluid.SurfaceDensity }

func (g *Grid) Quantities(cell int) (IntensiveQuantities, error) {
	if cell < 0 || cell >= len(g.Cells) {
		return IntensiveQuantities{}, fmt.Errorf("%w: %d", ErrCellOutOfRange, cell)
	}
	return Evaluate(g.Fluid, g.Usage, g.Cells[cell]), nil
}

// AverageB returns the mean formation volume factor per component, used to
// scale well residuals to reservoir volumes.
func (g *Grid) AverageB() phase.Vector {
	var avg phase.Vector
	if len(g.Cells) == 0 {
		for _, c := range g.Usage.Components() {
			avg[c] = 1
		}
		return avg
	}
	for _, cell := range g.Cells {
		p := ad.Const(cell.Pressure)
		for _, c := range g.Usage.Components() {
			avg[c] += 1 / g.Fluid.invB(p, c).Value()
		}
	}
	for _, c := range g.Usage.Components() {
		avg[c] /= float64(len(g.Cells))
	}
	return avg
}
