package well

import (
	"slices"

	"github.com/san-kum/wellsim/internal/container"
	"github.com/san-kum/wellsim/internal/phase"
)

// SingleWellState is the persistent solution of one well between Newton
// iterations and report steps.
type SingleWellState struct {
	Name     string
	Producer bool
	Status   Status
	Control  int

	BHP          float64
	THP          float64
	SurfaceRates phase.Vector

	// Solution holds the primary variable values in layout order.
	Solution []float64

	PerfRates []phase.Vector
	PerfPress []float64
}

// NewSingleWellState sizes a state for def. Rates start at zero and the
// bhp at the given guess.
func NewSingleWellState(def *Definition, pu phase.Usage, bhp float64) SingleWellState {
	return SingleWellState{
		Name:      def.Name,
		Producer:  def.Type == Producer,
		BHP:       bhp,
		Solution:  make([]float64, NewLayout(pu).NumWellEq()),
		PerfRates: make([]phase.Vector, len(def.Connections)),
		PerfPress: make([]float64, len(def.Connections)),
	}
}

func (s SingleWellState) Clone() SingleWellState {
	s.Solution = slices.Clone(s.Solution)
	s.PerfRates = slices.Clone(s.PerfRates)
	s.PerfPress = slices.Clone(s.PerfPress)
	return s
}

// State is the well state of a run, one entry per well.
type State = container.Container[SingleWellState]

func NewState() *State {
	return container.New[SingleWellState]()
}
