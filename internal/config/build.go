package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/wellsim/internal/assembly"
	"github.com/san-kum/wellsim/internal/convergence"
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/reservoir"
	"github.com/san-kum/wellsim/internal/vfp"
	"github.com/san-kum/wellsim/internal/well"
	"github.com/san-kum/wellsim/internal/welltest"
)

var ErrInvalidDeck = errors.New("config: invalid deck")

// WellSetup is a built well with its run settings.
type WellSetup struct {
	Definition well.Definition
	Status     well.Status
	InitialBHP float64
	Limits     welltest.Limits
}

// Deck is a validated Config converted to the types of the simulator.
type Deck struct {
	Name    string
	Usage   phase.Usage
	Grid    *reservoir.Grid
	VFP     *vfp.Properties
	Wells   []WellSetup
	Params  well.Params
	Options assembly.Options
	Workers int
}

func (c *Config) Build() (*Deck, error) {
	pu, err := c.Usage()
	if err != nil {
		return nil, err
	}
	grid, err := c.Grid(pu)
	if err != nil {
		return nil, err
	}
	props, err := c.BuildVFP()
	if err != nil {
		return nil, err
	}
	params, err := c.Params()
	if err != nil {
		return nil, err
	}
	d := &Deck{
		Name:    c.Name,
		Usage:   pu,
		Grid:    grid,
		VFP:     props,
		Params:  params,
		Options: c.Options(),
		Workers: c.Solver.Workers,
	}
	seen := make(map[string]bool)
	for _, wc := range c.Wells {
		if seen[wc.Name] {
			return nil, fmt.Errorf("%w: duplicate well %q", ErrInvalidDeck, wc.Name)
		}
		seen[wc.Name] = true
		ws, err := wc.build(pu, grid)
		if err != nil {
			return nil, err
		}
		d.Wells = append(d.Wells, ws)
	}
	if len(d.Wells) == 0 {
		return nil, fmt.Errorf("%w: no wells", ErrInvalidDeck)
	}
	return d, nil
}

func (c *Config) Usage() (phase.Usage, error) {
	pu, err := phase.ParseUsage(c.Phases)
	if err != nil {
		return phase.Usage{}, fmt.Errorf("%w: phases: %v", ErrInvalidDeck, err)
	}
	return pu, nil
}

// vector overlays pv on base.
func vector(pv PhaseValues, base phase.Vector) (phase.Vector, error) {
	out := base
	for name, v := range pv {
		p, err := phase.Parse(name)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidDeck, err)
		}
		out[p] = v
	}
	return out, nil
}

func (c *Config) BuildFluid() (reservoir.Fluid, error) {
	f := reservoir.DefaultFluid()
	fc := c.Fluid
	var err error
	fields := []struct {
		name string
		pv   PhaseValues
		dst  *phase.Vector
	}{
		{"surface_density", fc.SurfaceDensity, &f.SurfaceDensity},
		{"b0", fc.B0, &f.B0},
		{"compressibility", fc.Compressibility, &f.Compressibility},
		{"viscosity", fc.Viscosity, &f.Viscosity},
		{"corey_exp", fc.CoreyExp, &f.CoreyExp},
		{"residual_saturation", fc.ResidualSat, &f.ResidualSat},
	}
	for _, fl := range fields {
		if *fl.dst, err = vector(fl.pv, *fl.dst); err != nil {
			return f, fmt.Errorf("fluid %s: %w", fl.name, err)
		}
	}
	if fc.RefPressure > 0 {
		f.RefPressure = fc.RefPressure
	}
	f.Rs, f.Rv = fc.Rs, fc.Rv
	return f, nil
}

func (c *Config) Grid(pu phase.Usage) (*reservoir.Grid, error) {
	f, err := c.BuildFluid()
	if err != nil {
		return nil, err
	}
	if len(c.Cells) == 0 {
		return nil, fmt.Errorf("%w: no cells", ErrInvalidDeck)
	}
	cells := make([]reservoir.Cell, len(c.Cells))
	for i, cc := range c.Cells {
		s, err := vector(cc.Saturation, phase.Vector{})
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		if cc.Pressure <= 0 {
			return nil, fmt.Errorf("%w: cell %d pressure %g", ErrInvalidDeck, i, cc.Pressure)
		}
		cells[i] = reservoir.Cell{Pressure: cc.Pressure, Saturation: s, Depth: cc.Depth}
	}
	return reservoir.NewGrid(f, pu, cells)
}

func (c *Config) BuildVFP() (*vfp.Properties, error) {
	props := vfp.NewProperties()
	for _, tc := range c.VFP.Producers {
		t := &vfp.ProdTable{
			ID:         tc.ID,
			DatumDepth: tc.Datum,
			FloAxis:    tc.FloAxis,
			THPAxis:    tc.THPAxis,
			WFRAxis:    orZero(tc.WFRAxis),
			GFRAxis:    orZero(tc.GFRAxis),
			ALQAxis:    orZero(tc.ALQAxis),
			Data:       tc.Data,
		}
		var err error
		if t.Flo, err = vfp.ParseFlo(tc.Flo); err != nil {
			return nil, err
		}
		if t.WFR, err = vfp.ParseWFR(tc.WFR); err != nil {
			return nil, err
		}
		if t.GFR, err = vfp.ParseGFR(tc.GFR); err != nil {
			return nil, err
		}
		if err := props.AddProd(t); err != nil {
			return nil, err
		}
	}
	for _, tc := range c.VFP.Injectors {
		t := &vfp.InjTable{ID: tc.ID, DatumDepth: tc.Datum, FloAxis: tc.FloAxis, THPAxis: tc.THPAxis, Data: tc.Data}
		var err error
		if t.Flo, err = vfp.ParseFlo(tc.Flo); err != nil {
			return nil, err
		}
		if err := props.AddInj(t); err != nil {
			return nil, err
		}
	}
	return props, nil
}

// orZero gives an omitted axis a single node at zero.
func orZero(ax []float64) []float64 {
	if len(ax) == 0 {
		return []float64{0}
	}
	return ax
}

func (c *Config) Params() (well.Params, error) {
	p := well.DefaultParams()
	s := c.Solver
	if s.Gravity > 0 {
		p.Gravity = s.Gravity
	}
	if s.DwellFractionMax > 0 {
		p.DwellFractionMax = s.DwellFractionMax
	}
	if s.DbhpMaxRel > 0 {
		p.DbhpMaxRel = s.DbhpMaxRel
	}
	if s.MinBHP > 0 {
		p.MinBHP = s.MinBHP
	}
	if s.WellboreVolume > 0 {
		p.WellboreVolume = s.WellboreVolume
	}
	var err error
	if p.SurfaceScaling, err = vector(s.SurfaceScaling, p.SurfaceScaling); err != nil {
		return p, fmt.Errorf("surface_scaling: %w", err)
	}
	return p, nil
}

func (c *Config) Tolerances() convergence.Tolerances {
	t := convergence.DefaultTolerances()
	s := c.Solver
	if s.ToleranceWells > 0 {
		t.Standard = s.ToleranceWells
	}
	if s.RelaxedToleranceFlow > 0 {
		t.Relaxed = s.RelaxedToleranceFlow
	}
	if s.MaxResidualAllowed > 0 {
		t.MaxResidualAllowed = s.MaxResidualAllowed
	}
	return t
}

func (c *Config) Options() assembly.Options {
	o := assembly.DefaultOptions()
	if c.Solver.Dt > 0 {
		o.Dt = c.Solver.Dt
	}
	if c.Solver.MaxIterations > 0 {
		o.MaxIterations = c.Solver.MaxIterations
	}
	o.Tolerances = c.Tolerances()
	o.Relax = c.Solver.Relax
	return o
}

func parseType(s string) (well.Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "producer", "prod":
		return well.Producer, nil
	case "injector", "inj":
		return well.Injector, nil
	}
	return 0, fmt.Errorf("%w: well type %q", ErrInvalidDeck, s)
}

func parseStatus(s string) (well.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return well.Open, nil
	case "stop", "stopped":
		return well.Stopped, nil
	case "shut":
		return well.Shut, nil
	}
	return 0, fmt.Errorf("%w: well status %q", ErrInvalidDeck, s)
}

func (wc WellConfig) build(pu phase.Usage, grid *reservoir.Grid) (WellSetup, error) {
	typ, err := parseType(wc.Type)
	if err != nil {
		return WellSetup{}, fmt.Errorf("well %s: %w", wc.Name, err)
	}
	status, err := parseStatus(wc.Status)
	if err != nil {
		return WellSetup{}, fmt.Errorf("well %s: %w", wc.Name, err)
	}
	def := well.Definition{
		Name:           wc.Name,
		Type:           typ,
		RefDepth:       wc.RefDepth,
		AllowCrossflow: wc.AllowCrossflow,
		Efficiency:     wc.Efficiency,
	}
	for _, cc := range wc.Connections {
		if cc.Cell < 0 || cc.Cell >= grid.NumCells() {
			return WellSetup{}, fmt.Errorf("%w: well %s connects to cell %d of %d", ErrInvalidDeck, wc.Name, cc.Cell, grid.NumCells())
		}
		def.Connections = append(def.Connections, well.Connection{Cell: cc.Cell, Depth: cc.Depth, WellIndex: cc.WellIndex})
	}
	if typ == well.Injector {
		p, err := phase.Parse(wc.Injection)
		if err != nil {
			return WellSetup{}, fmt.Errorf("%w: well %s injection: %v", ErrInvalidDeck, wc.Name, err)
		}
		def.CompFrac[p] = 1
	}
	for i, cc := range wc.Controls {
		ctrl, err := cc.build(typ)
		if err != nil {
			return WellSetup{}, fmt.Errorf("well %s control %d: %w", wc.Name, i, err)
		}
		def.Controls = append(def.Controls, ctrl)
	}
	if err := def.Validate(pu); err != nil {
		return WellSetup{}, err
	}
	return WellSetup{
		Definition: def,
		Status:     status,
		InitialBHP: wc.InitialBHP,
		Limits:     wc.Limits,
	}, nil
}

func (cc ControlConfig) build(typ well.Type) (well.Control, error) {
	mode, err := well.ParseMode(cc.Mode)
	if err != nil {
		return well.Control{}, err
	}
	ctrl := well.Control{Mode: mode, Target: cc.Target, VFPTable: cc.VFPTable, ALQ: cc.ALQ}
	if mode == well.SurfaceRate || mode == well.ReservoirRate {
		if typ == well.Producer {
			ctrl.Target = -cc.Target
		}
		for _, name := range cc.Phases {
			p, err := phase.Parse(name)
			if err != nil {
				return well.Control{}, fmt.Errorf("%w: %v", ErrInvalidDeck, err)
			}
			ctrl.Distr[p] = 1
		}
		if ctrl.Distr, err = vector(cc.Distr, ctrl.Distr); err != nil {
			return well.Control{}, err
		}
	}
	return ctrl, nil
}

// StartBHP is the initial bhp guess for w: its configured value, or a
// pressure offset from the connected cells in the direction of flow.
func (d *Deck) StartBHP(w WellSetup) float64 {
	if w.InitialBHP > 0 {
		return w.InitialBHP
	}
	const offset = 2e6
	def := w.Definition
	p := d.Grid.Cells[def.Connections[0].Cell].Pressure
	for _, c := range def.Connections[1:] {
		cp := d.Grid.Cells[c.Cell].Pressure
		if def.Type == well.Producer && cp < p || def.Type == well.Injector && cp > p {
			p = cp
		}
	}
	if def.Type == well.Injector {
		return p + offset
	}
	return max(p-offset, d.Params.MinBHP)
}

// NewState returns a fresh well state for the deck, one entry per well in
// deck order.
func (d *Deck) NewState() (*well.State, error) {
	state := well.NewState()
	for _, w := range d.Wells {
		ws := well.NewSingleWellState(&w.Definition, d.Usage, d.StartBHP(w))
		ws.Status = w.Status
		if err := state.Add(w.Definition.Name, ws); err != nil {
			return nil, err
		}
	}
	return state, nil
}
