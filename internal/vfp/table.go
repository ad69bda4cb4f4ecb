package vfp

import (
	"errors"
	"fmt"
	"slices"
)

// FloType selects the rate variable a table is tabulated against.
type FloType int

const (
	FloOil FloType = iota
	FloLiquid
	FloGas
)

// WFRType selects the water fraction variable of a producer table.
type WFRType int

const (
	WFRWaterCut WFRType = iota
	WFRWaterOilRatio
	WFRWaterGasRatio
)

// GFRType selects the gas fraction variable of a producer table.
type GFRType int

const (
	GFRGasOilRatio GFRType = iota
	GFRGasLiquidRatio
	GFROilGasRatio
)

// ProdTable is a producer lift-curve table. Data is indexed
// [thp][wfr][gfr][alq][flo] with flo varying fastest. Flo values are
// positive production rates.
type ProdTable struct {
	ID         int
	DatumDepth float64
	Flo        FloType
	WFR        WFRType
	GFR        GFRType

	FloAxis []float64
	THPAxis []float64
	WFRAxis []float64
	GFRAxis []float64
	ALQAxis []float64

	Data []float64
}

func (t *ProdTable) dims() []int {
	return []int{len(t.THPAxis), len(t.WFRAxis), len(t.GFRAxis), len(t.ALQAxis), len(t.FloAxis)}
}

// At returns the tabulated bhp at the given node.
func (t *ProdTable) At(thp, wfr, gfr, alq, flo int) float64 {
	nw, ng, na, nf := len(t.WFRAxis), len(t.GFRAxis), len(t.ALQAxis), len(t.FloAxis)
	return t.Data[(((thp*nw+wfr)*ng+gfr)*na+alq)*nf+flo]
}

// Validate checks axis ordering and data size.
func (t *ProdTable) Validate() error {
	axes := map[string][]float64{
		"flo": t.FloAxis, "thp": t.THPAxis, "wfr": t.WFRAxis, "gfr": t.GFRAxis, "alq": t.ALQAxis,
	}
	for name, ax := range axes {
		if err := checkAxis(ax); err != nil {
			return fmt.Errorf("%w: table %d %s axis: %v", ErrInvalidTable, t.ID, name, err)
		}
	}
	n := 1
	for _, d := range t.dims() {
		n *= d
	}
	if len(t.Data) != n {
		return fmt.Errorf("%w: table %d has %d values, want %d", ErrInvalidTable, t.ID, len(t.Data), n)
	}
	return nil
}

// InjTable is an injector lift-curve table indexed [thp][flo].
type InjTable struct {
	ID         int
	DatumDepth float64
	Flo        FloType

	FloAxis []float64
	THPAxis []float64

	Data []float64
}

func (t *InjTable) dims() []int {
	return []int{len(t.THPAxis), len(t.FloAxis)}
}

func (t *InjTable) At(thp, flo int) float64 {
	return t.Data[thp*len(t.FloAxis)+flo]
}

func (t *InjTable) Validate() error {
	if err := checkAxis(t.FloAxis); err != nil {
		return fmt.Errorf("%w: table %d flo axis: %v", ErrInvalidTable, t.ID, err)
	}
	if err := checkAxis(t.THPAxis); err != nil {
		return fmt.Errorf("%w: table %d thp axis: %v", ErrInvalidTable, t.ID, err)
	}
	if n := len(t.FloAxis) * len(t.THPAxis); len(t.Data) != n {
		return fmt.Errorf("%w: table %d has %d values, want %d", ErrInvalidTable, t.ID, len(t.Data), n)
	}
	return nil
}

func checkAxis(ax []float64) error {
	if len(ax) == 0 {
		return errors.New("empty")
	}
	if !slices.IsSorted(ax) || len(slices.Compact(slices.Clone(ax))) != len(ax) {
		return errors.New("not strictly increasing")
	}
	return nil
}
