package config

import (
	"sort"

	"github.com/san-kum/wellsim/internal/welltest"
)

// Presets are small self-contained decks. Each entry builds a fresh
// Config so callers may modify the result.
var Presets = map[string]func() *Config{
	"producer-bhp":  producerBHP,
	"producer-lrat": producerLRAT,
	"injector-thp":  injectorTHP,
	"field":         field,
}

// GetPreset returns the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func layer(n int, pressure float64) []CellConfig {
	cells := make([]CellConfig, n)
	for i := range cells {
		cells[i] = CellConfig{
			Pressure:   pressure,
			Saturation: PhaseValues{"water": 0.3, "gas": 0.1},
			Depth:      1000 + 5*float64(i),
		}
	}
	return cells
}

func conns(wi float64, cells ...int) []ConnectionConfig {
	out := make([]ConnectionConfig, len(cells))
	for i, c := range cells {
		out[i] = ConnectionConfig{Cell: c, Depth: 1000 + 5*float64(c), WellIndex: wi}
	}
	return out
}

// tubing tables: bhp = thp + 5 MPa + 10 MPa per m3/s of oil for producers,
// bhp = thp + 18 MPa + 50 kPa per m3/s of gas for injectors.
func tubing() VFPConfig {
	return VFPConfig{
		Producers: []ProdTableConfig{{
			ID:      1,
			Datum:   1000,
			Flo:     "oil",
			WFR:     "wct",
			GFR:     "gor",
			FloAxis: []float64{0, 0.1},
			THPAxis: []float64{1e6, 1e7},
			Data:    []float64{6e6, 7e6, 1.5e7, 1.6e7},
		}},
		Injectors: []InjTableConfig{{
			ID:      2,
			Datum:   1000,
			Flo:     "gas",
			FloAxis: []float64{0, 10},
			THPAxis: []float64{5e6, 1.5e7},
			Data:    []float64{2.3e7, 2.35e7, 3.3e7, 3.35e7},
		}},
	}
}

func base(name string, cells int) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Cells = layer(cells, 2.5e7)
	return cfg
}

func producerBHP() *Config {
	cfg := base("producer-bhp", 3)
	cfg.Wells = []WellConfig{{
		Name:        "PROD1",
		Type:        "producer",
		RefDepth:    1000,
		Connections: conns(1e-11, 0, 1),
		Controls:    []ControlConfig{{Mode: "bhp", Target: 1.5e7}},
	}}
	return cfg
}

func producerLRAT() *Config {
	cfg := base("producer-lrat", 3)
	cfg.Wells = []WellConfig{{
		Name:        "PROD1",
		Type:        "producer",
		RefDepth:    1000,
		Connections: conns(1e-11, 0, 1, 2),
		Controls: []ControlConfig{
			{Mode: "rate", Target: 0.01, Phases: []string{"water", "oil"}},
			{Mode: "bhp", Target: 1e7},
		},
	}}
	return cfg
}

func injectorTHP() *Config {
	cfg := base("injector-thp", 2)
	cfg.VFP = tubing()
	cfg.Wells = []WellConfig{{
		Name:        "INJ1",
		Type:        "injector",
		Injection:   "gas",
		RefDepth:    1000,
		Connections: conns(1e-11, 0),
		Controls: []ControlConfig{
			{Mode: "thp", Target: 1e7, VFPTable: 2},
			{Mode: "bhp", Target: 4e7},
		},
	}}
	return cfg
}

func field() *Config {
	cfg := base("field", 5)
	cfg.VFP = tubing()
	cfg.Solver.Relax = true
	cfg.Wells = []WellConfig{
		{
			Name:        "PROD1",
			Type:        "producer",
			RefDepth:    1000,
			Connections: conns(1e-11, 0, 1),
			Controls: []ControlConfig{
				{Mode: "rate", Target: 0.02, Phases: []string{"water", "oil"}},
				{Mode: "bhp", Target: 1.2e7},
			},
			Limits: welltest.Limits{MaxWaterCut: 0.5},
		},
		{
			Name:        "PROD2",
			Type:        "producer",
			RefDepth:    1000,
			Connections: conns(1e-11, 2, 3),
			Controls: []ControlConfig{
				{Mode: "bhp", Target: 1.4e7},
				{Mode: "thp", Target: 1e6, VFPTable: 1},
			},
			Limits: welltest.Limits{MaxGasOilRatio: 500},
		},
		{
			Name:        "INJ1",
			Type:        "injector",
			Injection:   "water",
			RefDepth:    1000,
			Connections: conns(1e-11, 4),
			Controls: []ControlConfig{
				{Mode: "rate", Target: 0.01, Phases: []string{"water"}},
				{Mode: "bhp", Target: 3.5e7},
			},
		},
		{
			Name:        "INJ2",
			Type:        "injector",
			Injection:   "gas",
			Status:      "stopped",
			RefDepth:    1000,
			Connections: conns(1e-11, 4),
			Controls:    []ControlConfig{{Mode: "bhp", Target: 3e7}},
		},
	}
	return cfg
}
