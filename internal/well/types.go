package well

import (
	"fmt"

	"github.com/san-kum/wellsim/internal/phase"
)

type Type int

const (
	Injector Type = iota
	Producer
)

func (t Type) String() string {
	if t == Injector {
		return "injector"
	}
	return "producer"
}

// Mode is the kind of constraint a control imposes.
type Mode int

const (
	BHP Mode = iota
	THP
	SurfaceRate
	ReservoirRate
)

var modeNames = map[Mode]string{
	BHP:           "BHP",
	THP:           "THP",
	SurfaceRate:   "SURFACE_RATE",
	ReservoirRate: "RESERVOIR_RATE",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	switch s {
	case "bhp":
		return BHP, nil
	case "thp":
		return THP, nil
	case "rate", "surface_rate":
		return SurfaceRate, nil
	case "resv", "reservoir_rate":
		return ReservoirRate, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownControl, s)
}

type Status int

const (
	Open Status = iota
	Stopped
	Shut
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Stopped:
		return "stopped"
	case Shut:
		return "shut"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Control is one constraint of a well. Rate targets follow the sign
// convention: negative for producers. Distr weights the components that
// enter a rate constraint.
type Control struct {
	Mode     Mode
	Target   float64
	Distr    phase.Vector
	VFPTable int
	ALQ      float64
}

// NumUnderControl counts the active phases with a positive weight.
func (c Control) NumUnderControl(pu phase.Usage) int {
	n := 0
	for _, p := range pu.Phases() {
		if c.Distr[p] > 0 {
			n++
		}
	}
	return n
}

// Connection couples the well to one reservoir cell.
type Connection struct {
	Cell      int
	Depth     float64
	WellIndex float64 // transmissibility factor
}

// Definition is the schedule-provided topology and controls of a well.
type Definition struct {
	Name           string
	Type           Type
	RefDepth       float64
	Connections    []Connection
	Controls       []Control
	CompFrac       phase.Vector
	AllowCrossflow bool
	Efficiency     float64
}

func (d *Definition) Validate(pu phase.Usage) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if len(d.Connections) == 0 {
		return &Error{Well: d.Name, Op: "validate", Err: ErrNoConnections}
	}
	if len(d.Controls) == 0 {
		return &Error{Well: d.Name, Op: "validate", Err: fmt.Errorf("%w: no controls", ErrInvalidControl)}
	}
	for i, c := range d.Controls {
		if _, ok := modeNames[c.Mode]; !ok {
			return &Error{Well: d.Name, Op: "validate", Err: ErrUnknownControl}
		}
		if (c.Mode == SurfaceRate || c.Mode == ReservoirRate) && c.NumUnderControl(pu) == 0 {
			return &Error{Well: d.Name, Op: "validate", Err: fmt.Errorf("%w: control %d", ErrNoPhaseUnderControl, i)}
		}
	}
	if d.Type == Injector && d.CompFrac.Sum(pu) == 0 {
		return &Error{Well: d.Name, Op: "validate", Err: fmt.Errorf("%w: injector without composition", ErrInvalidDefinition)}
	}
	return nil
}

func (d *Definition) efficiency() float64 {
	if d.Efficiency <= 0 {
		return 1
	}
	return d.Efficiency
}

// Params are the numerical constants of the well model.
type Params struct {
	// SurfaceScaling divides the volume fractions outside reservoir rate
	// control. It stands in for a gas shrinkage conversion.
	SurfaceScaling   phase.Vector
	Gravity          float64
	DwellFractionMax float64
	DbhpMaxRel       float64
	MinBHP           float64
	WellboreVolume   float64
}

func DefaultParams() Params {
	return Params{
		SurfaceScaling:   phase.Vector{1, 1, 0.01, 1},
		Gravity:          9.80665,
		DwellFractionMax: 0.2,
		DbhpMaxRel:       1.0,
		MinBHP:           1e5,
		WellboreVolume:   0.002831684659200,
	}
}

// HydrostaticCorrection is the pressure difference of a fluid column of
// density rho between wellRefDepth and vfpRefDepth.
func HydrostaticCorrection(wellRefDepth, vfpRefDepth, rho, gravity float64) float64 {
	return rho * gravity * (vfpRefDepth - wellRefDepth)
}
