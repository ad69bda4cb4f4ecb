package vfp

import (
	"fmt"
	"math"

	"github.com/san-kum/wellsim/internal/ad"
)

// Properties holds the lift-curve tables of a run, keyed by table id.
type Properties struct {
	prod map[int]*ProdTable
	inj  map[int]*InjTable
}

func NewProperties() *Properties {
	return &Properties{prod: make(map[int]*ProdTable), inj: make(map[int]*InjTable)}
}

func (p *Properties) AddProd(t *ProdTable) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := p.prod[t.ID]; ok {
		return fmt.Errorf("%w: producer table %d", ErrDuplicateID, t.ID)
	}
	p.prod[t.ID] = t
	return nil
}

func (p *Properties) AddInj(t *InjTable) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := p.inj[t.ID]; ok {
		return fmt.Errorf("%w: injector table %d", ErrDuplicateID, t.ID)
	}
	p.inj[t.ID] = t
	return nil
}

func (p *Properties) Prod(id int) (*ProdTable, error) {
	t, ok := p.prod[id]
	if !ok {
		return nil, fmt.Errorf("%w: producer table %d", ErrTableNotFound, id)
	}
	return t, nil
}

func (p *Properties) Inj(id int) (*InjTable, error) {
	t, ok := p.inj[id]
	if !ok {
		return nil, fmt.Errorf("%w: injector table %d", ErrTableNotFound, id)
	}
	return t, nil
}

// ProdBHP interpolates the bottom-hole pressure of a producer at the
// table datum. Surface rates follow the production-negative convention.
// The result carries derivatives through flo, wfr and gfr.
func (p *Properties) ProdBHP(id int, aqua, liquid, vapour ad.Eval, thp, alq float64) (ad.Eval, error) {
	t, err := p.Prod(id)
	if err != nil {
		return ad.Eval{}, err
	}
	flo := Flo(aqua, liquid, vapour, t.Flo)
	wfr := WFR(aqua, liquid, vapour, t.WFR)
	gfr := GFR(aqua, liquid, vapour, t.GFR)

	at := []interpData{
		findInterpData(thp, t.THPAxis),
		findInterpData(wfr.Value(), t.WFRAxis),
		findInterpData(gfr.Value(), t.GFRAxis),
		findInterpData(alq, t.ALQAxis),
		findInterpData(-flo.Value(), t.FloAxis),
	}
	v, grad := interpolate(t.Data, t.dims(), at)

	bhp := wfr.Scale(grad[1]).Add(gfr.Scale(grad[2])).Sub(flo.Scale(math.Max(0, grad[4])))
	bhp.SetValue(v)
	return bhp, nil
}

// InjBHP interpolates the bottom-hole pressure of an injector.
func (p *Properties) InjBHP(id int, aqua, liquid, vapour ad.Eval, thp float64) (ad.Eval, error) {
	t, err := p.Inj(id)
	if err != nil {
		return ad.Eval{}, err
	}
	flo := Flo(aqua, liquid, vapour, t.Flo)
	at := []interpData{
		findInterpData(thp, t.THPAxis),
		findInterpData(flo.Value(), t.FloAxis),
	}
	v, grad := interpolate(t.Data, t.dims(), at)

	bhp := flo.Scale(grad[1])
	bhp.SetValue(v)
	return bhp, nil
}

// ProdTHP inverts a producer table: it returns the tubing-head pressure
// that yields bhp at the given rates.
func (p *Properties) ProdTHP(id int, aqua, liquid, vapour, bhp, alq float64) (float64, error) {
	t, err := p.Prod(id)
	if err != nil {
		return 0, err
	}
	a, l, g := ad.Const(aqua), ad.Const(liquid), ad.Const(vapour)
	wfr := WFR(a, l, g, t.WFR).Value()
	gfr := GFR(a, l, g, t.GFR).Value()
	flo := -Flo(a, l, g, t.Flo).Value()

	curve := make([]float64, len(t.THPAxis))
	for i := range t.THPAxis {
		at := []interpData{
			{a: i, b: i},
			findInterpData(wfr, t.WFRAxis),
			findInterpData(gfr, t.GFRAxis),
			findInterpData(alq, t.ALQAxis),
			findInterpData(flo, t.FloAxis),
		}
		curve[i], _ = interpolate(t.Data, t.dims(), at)
	}
	return findX(t.THPAxis, curve, bhp), nil
}

func (p *Properties) InjTHP(id int, aqua, liquid, vapour, bhp float64) (float64, error) {
	t, err := p.Inj(id)
	if err != nil {
		return 0, err
	}
	flo := Flo(ad.Const(aqua), ad.Const(liquid), ad.Const(vapour), t.Flo).Value()
	curve := make([]float64, len(t.THPAxis))
	for i := range t.THPAxis {
		at := []interpData{{a: i, b: i}, findInterpData(flo, t.FloAxis)}
		curve[i], _ = interpolate(t.Data, t.dims(), at)
	}
	return findX(t.THPAxis, curve, bhp), nil
}

// findX inverts the piecewise linear curve y(x) at target, extrapolating
// from the end segment nearest the target when it is not bracketed.
func findX(x, y []float64, target float64) float64 {
	n := len(x)
	if n == 1 {
		return x[0]
	}
	seg := -1
	for i := 0; i < n-1; i++ {
		lo, hi := math.Min(y[i], y[i+1]), math.Max(y[i], y[i+1])
		if target >= lo && target <= hi {
			seg = i
			break
		}
	}
	if seg < 0 {
		seg = 0
		if math.Abs(target-y[n-1]) < math.Abs(target-y[0]) {
			seg = n - 2
		}
	}
	dy := y[seg+1] - y[seg]
	if dy == 0 {
		return x[seg]
	}
	return x[seg] + (target-y[seg])*(x[seg+1]-x[seg])/dy
}

// Flo returns the table rate variable from surface rates.
func Flo(aqua, liquid, vapour ad.Eval, typ FloType) ad.Eval {
	switch typ {
	case FloLiquid:
		return aqua.Add(liquid)
	case FloGas:
		return vapour
	}
	return liquid
}

func WFR(aqua, liquid, vapour ad.Eval, typ WFRType) ad.Eval {
	switch typ {
	case WFRWaterOilRatio:
		return ratio(aqua, liquid)
	case WFRWaterGasRatio:
		return ratio(aqua, vapour)
	}
	return ratio(aqua, aqua.Add(liquid))
}

func GFR(aqua, liquid, vapour ad.Eval, typ GFRType) ad.Eval {
	switch typ {
	case GFRGasLiquidRatio:
		return ratio(vapour, liquid.Add(aqua))
	case GFROilGasRatio:
		return ratio(liquid, vapour)
	}
	return ratio(vapour, liquid)
}

// ratio is zero when the denominator vanishes.
func ratio(num, den ad.Eval) ad.Eval {
	if den.Value() == 0 {
		return ad.Const(0)
	}
	return num.Div(den)
}
