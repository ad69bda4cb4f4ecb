package well

import (
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/reservoir"
	"github.com/san-kum/wellsim/internal/vfp"
)

func producerDef(controls ...Control) Definition {
	return Definition{
		Name:     "PROD1",
		Type:     Producer,
		RefDepth: 1000,
		Connections: []Connection{
			{Cell: 0, Depth: 1000, WellIndex: 1e-11},
			{Cell: 1, Depth: 1010, WellIndex: 1e-11},
		},
		Controls: controls,
	}
}

func injectorDef(compFrac phase.Vector, controls ...Control) Definition {
	return Definition{
		Name:        "INJ1",
		Type:        Injector,
		RefDepth:    1000,
		Connections: []Connection{{Cell: 0, Depth: 1000, WellIndex: 1e-11}},
		Controls:    controls,
		CompFrac:    compFrac,
	}
}

// mustModel builds a model and seeds it with solution under the first
// control.
func mustModel(def Definition, pu phase.Usage, props *vfp.Properties, solution ...float64) (*Model, *SingleWellState) {
	m, err := NewModel(def, 0, pu, props, DefaultParams(), nil)
	if err != nil {
		panic(err)
	}
	ws := NewSingleWellState(&def, pu, 2e7)
	if len(solution) > 0 {
		copy(ws.Solution, solution)
	}
	if err := m.SetWellVariables(&ws); err != nil {
		panic(err)
	}
	return m, &ws
}

func testGrid(pu phase.Usage, pressures ...float64) *reservoir.Grid {
	cells := make([]reservoir.Cell, len(pressures))
	for i, p := range pressures {
		cells[i] = reservoir.Cell{Pressure: p, Saturation: phase.Vector{0.4, 0.5, 0.1}, Depth: 1000}
	}
	g, err := reservoir.NewGrid(reservoir.DefaultFluid(), pu, cells)
	if err != nil {
		panic(err)
	}
	return g
}

// flatProdTable is a producer table whose bhp depends on thp and oil rate
// only.
func flatProdTable(id int, datum float64) *vfp.ProdTable {
	t := &vfp.ProdTable{
		ID:         id,
		DatumDepth: datum,
		Flo:        vfp.FloOil,
		FloAxis:    []float64{0, 0.01, 0.1},
		THPAxis:    []float64{1e6, 5e6},
		WFRAxis:    []float64{0},
		GFRAxis:    []float64{0},
		ALQAxis:    []float64{0},
	}
	for _, thp := range t.THPAxis {
		for _, flo := range t.FloAxis {
			t.Data = append(t.Data, 5e6+thp+1e8*flo)
		}
	}
	return t
}

func propsWith(tables ...*vfp.ProdTable) *vfp.Properties {
	p := vfp.NewProperties()
	for _, t := range tables {
		if err := p.AddProd(t); err != nil {
			panic(err)
		}
	}
	return p
}
