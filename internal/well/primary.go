package well

import (
	"fmt"

	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
)

// XVar is the slot of the first well unknown: total rate under pressure
// control, bhp under rate control.
const XVar = 0

// Layout places the well unknowns. Every component except the derived one
// owns a fraction slot after XVar.
type Layout struct {
	pu       phase.Usage
	fracSlot [phase.MaxComponents]int
}

func NewLayout(pu phase.Usage) Layout {
	l := Layout{pu: pu}
	for i := range l.fracSlot {
		l.fracSlot[i] = -1
	}
	for i, c := range pu.Independent() {
		l.fracSlot[c] = 1 + i
	}
	return l
}

// NumWellEq is one equation per component.
func (l Layout) NumWellEq() int { return l.pu.NumComponents() }

// FracSlot returns the slot of the fraction of c, or -1 for the derived
// component and inactive ones.
func (l Layout) FracSlot(c phase.Phase) int {
	if c < 0 || int(c) >= phase.MaxComponents {
		return -1
	}
	return l.fracSlot[c]
}

func (l Layout) Usage() phase.Usage { return l.pu }

// PrimaryVariables are the well unknowns as differentiable values in the
// combined reservoir and well space.
type PrimaryVariables struct {
	layout Layout
	space  ad.Space
	vals   [ad.MaxSize]ad.Eval
}

func NewPrimaryVariables(layout Layout, space ad.Space) *PrimaryVariables {
	return &PrimaryVariables{layout: layout, space: space}
}

// SetWellVariables seeds every unknown from the stored solution with a unit
// derivative at its own well slot.
func (pv *PrimaryVariables) SetWellVariables(solution []float64) error {
	n := pv.layout.NumWellEq()
	if len(solution) != n {
		return fmt.Errorf("%w: solution has %d entries, want %d", ErrStateSize, len(solution), n)
	}
	for i := 0; i < n; i++ {
		pv.vals[i] = ad.Variable(solution[i], pv.space.Size(), pv.space.WellSlot(i))
	}
	return nil
}

func (pv *PrimaryVariables) Get(slot int) ad.Eval { return pv.vals[slot] }

// Fraction is the well volume fraction of c. Only the independent fractions
// are stored; the derived one closes the simplex.
func (pv *PrimaryVariables) Fraction(c phase.Phase) ad.Eval {
	if !pv.layout.pu.IsActive(c) {
		return ad.Const(0)
	}
	if s := pv.layout.FracSlot(c); s >= 0 {
		return pv.vals[s]
	}
	f := ad.Constant(1, pv.space.Size())
	for _, o := range pv.layout.pu.Independent() {
		f = f.Sub(pv.vals[pv.layout.fracSlot[o]])
	}
	return f
}

// Values returns the current values in layout order.
func (pv *PrimaryVariables) Values() []float64 {
	n := pv.layout.NumWellEq()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = pv.vals[i].Value()
	}
	return out
}
