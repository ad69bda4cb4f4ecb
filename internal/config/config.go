package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wellsim/internal/welltest"
)

const (
	DefaultDt               = 86400.0
	DefaultMaxIterations    = 20
	DefaultToleranceWells   = 1e-4
	DefaultRelaxedTolerance = 1e-3
	DefaultMaxResidual      = 1e7
)

// Config is a well deck: the phases and cells the wells see, the lift
// tables, the wells themselves and the solver settings.
type Config struct {
	Name     string       `yaml:"name"`
	Phases   []string     `yaml:"phases"`
	Fluid    FluidConfig  `yaml:"fluid"`
	Cells    []CellConfig `yaml:"cells"`
	VFP      VFPConfig    `yaml:"vfp,omitempty"`
	Wells    []WellConfig `yaml:"wells"`
	Solver   SolverConfig `yaml:"solver"`
	LogLevel string       `yaml:"log_level,omitempty"`
}

// PhaseValues maps phase names to values. Missing phases keep their
// defaults.
type PhaseValues map[string]float64

type FluidConfig struct {
	SurfaceDensity  PhaseValues `yaml:"surface_density,omitempty"`
	RefPressure     float64     `yaml:"ref_pressure,omitempty"`
	B0              PhaseValues `yaml:"b0,omitempty"`
	Compressibility PhaseValues `yaml:"compressibility,omitempty"`
	Viscosity       PhaseValues `yaml:"viscosity,omitempty"`
	CoreyExp        PhaseValues `yaml:"corey_exp,omitempty"`
	ResidualSat     PhaseValues `yaml:"residual_saturation,omitempty"`
	Rs              float64     `yaml:"rs,omitempty"`
	Rv              float64     `yaml:"rv,omitempty"`
}

type CellConfig struct {
	Pressure   float64     `yaml:"pressure"`
	Saturation PhaseValues `yaml:"saturation"`
	Depth      float64     `yaml:"depth"`
}

type VFPConfig struct {
	Producers []ProdTableConfig `yaml:"producers,omitempty"`
	Injectors []InjTableConfig  `yaml:"injectors,omitempty"`
}

type ProdTableConfig struct {
	ID      int       `yaml:"id"`
	Datum   float64   `yaml:"datum_depth"`
	Flo     string    `yaml:"flo"`
	WFR     string    `yaml:"wfr,omitempty"`
	GFR     string    `yaml:"gfr,omitempty"`
	FloAxis []float64 `yaml:"flo_axis"`
	THPAxis []float64 `yaml:"thp_axis"`
	WFRAxis []float64 `yaml:"wfr_axis,omitempty"`
	GFRAxis []float64 `yaml:"gfr_axis,omitempty"`
	ALQAxis []float64 `yaml:"alq_axis,omitempty"`
	Data    []float64 `yaml:"data"`
}

type InjTableConfig struct {
	ID      int       `yaml:"id"`
	Datum   float64   `yaml:"datum_depth"`
	Flo     string    `yaml:"flo"`
	FloAxis []float64 `yaml:"flo_axis"`
	THPAxis []float64 `yaml:"thp_axis"`
	Data    []float64 `yaml:"data"`
}

type WellConfig struct {
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Status      string             `yaml:"status,omitempty"`
	RefDepth    float64            `yaml:"ref_depth"`
	Connections []ConnectionConfig `yaml:"connections"`
	Controls    []ControlConfig    `yaml:"controls"`
	// Injection is the injected phase of an injector.
	Injection      string          `yaml:"injection,omitempty"`
	AllowCrossflow bool            `yaml:"allow_crossflow,omitempty"`
	Efficiency     float64         `yaml:"efficiency,omitempty"`
	InitialBHP     float64         `yaml:"initial_bhp,omitempty"`
	Limits         welltest.Limits `yaml:"limits,omitempty"`
}

type ConnectionConfig struct {
	Cell      int     `yaml:"cell"`
	Depth     float64 `yaml:"depth"`
	WellIndex float64 `yaml:"well_index"`
}

// ControlConfig is one constraint of a well. Rate targets are positive for
// both producers and injectors; the sign convention is applied on build.
type ControlConfig struct {
	Mode     string      `yaml:"mode"`
	Target   float64     `yaml:"target"`
	Phases   []string    `yaml:"phases,omitempty"`
	Distr    PhaseValues `yaml:"distr,omitempty"`
	VFPTable int         `yaml:"vfp_table,omitempty"`
	ALQ      float64     `yaml:"alq,omitempty"`
}

type SolverConfig struct {
	Dt                   float64     `yaml:"dt"`
	MaxIterations        int         `yaml:"max_iterations"`
	ToleranceWells       float64     `yaml:"tolerance_wells"`
	RelaxedToleranceFlow float64     `yaml:"relaxed_tolerance_flow"`
	MaxResidualAllowed   float64     `yaml:"max_residual_allowed"`
	Relax                bool        `yaml:"relax,omitempty"`
	Workers              int         `yaml:"workers,omitempty"`
	Gravity              float64     `yaml:"gravity,omitempty"`
	DwellFractionMax     float64     `yaml:"dwell_fraction_max,omitempty"`
	DbhpMaxRel           float64     `yaml:"dbhp_max_rel,omitempty"`
	MinBHP               float64     `yaml:"min_bhp,omitempty"`
	WellboreVolume       float64     `yaml:"wellbore_volume,omitempty"`
	SurfaceScaling       PhaseValues `yaml:"surface_scaling,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:   "default",
		Phases: []string{"water", "oil", "gas"},
		Solver: SolverConfig{
			Dt:                   DefaultDt,
			MaxIterations:        DefaultMaxIterations,
			ToleranceWells:       DefaultToleranceWells,
			RelaxedToleranceFlow: DefaultRelaxedTolerance,
			MaxResidualAllowed:   DefaultMaxResidual,
		},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a deck over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
