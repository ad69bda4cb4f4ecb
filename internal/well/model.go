package well

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/wellsim/internal/ad"
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/vfp"
)

// Model is the equation model of one standard well. It owns the well's
// primary variables, its connection arrays and its local linear system;
// none of these are shared between wells.
type Model struct {
	def    Definition
	index  int
	pu     phase.Usage
	layout Layout
	space  ad.Space
	pv     *PrimaryVariables
	vfp    *vfp.Properties
	params Params
	logger *slog.Logger

	// control in force for the current iteration
	ctrl      Control
	ctrlIndex int

	perfDensities     []float64
	perfPressureDiffs []float64

	// surface volume fractions at the start of the timestep
	f0 phase.Vector

	sys system
}

// NewModel builds the model of well def, the index-th well of the run.
// props may be nil when no control uses a lift table.
func NewModel(def Definition, index int, pu phase.Usage, props *vfp.Properties, params Params, logger *slog.Logger) (*Model, error) {
	if pu.NumPhases() == 0 {
		return nil, &Error{Well: def.Name, Op: "new model", Err: fmt.Errorf("%w: no active phase", ErrInvalidDefinition)}
	}
	if err := def.Validate(pu); err != nil {
		return nil, err
	}
	layout := NewLayout(pu)
	numEq := pu.NumComponents()
	space, err := ad.NewSpace(numEq, layout.NumWellEq())
	if err != nil {
		return nil, &Error{Well: def.Name, Op: "new model", Err: err}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := len(def.Connections)
	m := &Model{
		def:               def,
		index:             index,
		pu:                pu,
		layout:            layout,
		space:             space,
		pv:                NewPrimaryVariables(layout, space),
		vfp:               props,
		params:            params,
		logger:            logger.With("well", def.Name),
		ctrl:              def.Controls[0],
		perfDensities:     make([]float64, n),
		perfPressureDiffs: make([]float64, n),
	}
	m.sys = newSystem(numEq, layout.NumWellEq(), n)
	return m, nil
}

func (m *Model) Name() string                        { return m.def.Name }
func (m *Model) Index() int                          { return m.index }
func (m *Model) Definition() *Definition             { return &m.def }
func (m *Model) IsProducer() bool                    { return m.def.Type == Producer }
func (m *Model) Usage() phase.Usage                  { return m.pu }
func (m *Model) Space() ad.Space                     { return m.space }
func (m *Model) Layout() Layout                      { return m.layout }
func (m *Model) PrimaryVariables() *PrimaryVariables { return m.pv }
func (m *Model) NumConnections() int                 { return len(m.def.Connections) }

// CurrentControl is the control resolved by the last SetWellVariables.
func (m *Model) CurrentControl() Control { return m.ctrl }

// SetLogger replaces the diagnostic sink, typically with a per-well
// deferred handler during parallel assembly.
func (m *Model) SetLogger(l *slog.Logger) {
	m.logger = l.With("well", m.def.Name)
}

// SetWellVariables resolves the control in force and seeds the primary
// variables from ws. It runs once at the start of every Newton iteration.
func (m *Model) SetWellVariables(ws *SingleWellState) error {
	ctrl, err := m.controlFor(ws, ws.Control)
	if err != nil {
		return err
	}
	m.ctrl = ctrl
	m.ctrlIndex = ws.Control
	if err := m.pv.SetWellVariables(ws.Solution); err != nil {
		return m.fail("set well variables", err)
	}
	return nil
}

// controlFor returns control i of the well. A stopped well is held at zero
// surface rate over all phases regardless of its schedule.
func (m *Model) controlFor(ws *SingleWellState, i int) (Control, error) {
	if ws.Status == Stopped {
		c := Control{Mode: SurfaceRate}
		for _, p := range m.pu.Phases() {
			c.Distr[p] = 1
		}
		return c, nil
	}
	if i < 0 || i >= len(m.def.Controls) {
		return Control{}, m.fail("resolve control", fmt.Errorf("%w: index %d of %d", ErrInvalidControl, i, len(m.def.Controls)))
	}
	return m.def.Controls[i], nil
}

func (m *Model) zero() ad.Eval {
	return ad.Const(0)
}
