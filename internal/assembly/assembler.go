// Package assembly drives the well models of a run: concurrent assembly of
// the well equations and the wells-only Newton loop.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/wellsim/internal/logging"
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/reservoir"
	"github.com/san-kum/wellsim/internal/well"
)

// Reservoir is the cell side seen by the wells.
type Reservoir interface {
	well.Reservoir
	NumCells() int
	SurfaceDensity() phase.Vector
	AverageB() phase.Vector
}

// Assembler assembles the equations of every well of a run. Wells are
// independent, so they are processed by a bounded pool of goroutines; each
// well logs into its own deferred handler and the records are flushed in
// well order once all wells are done.
type Assembler struct {
	wells   []*well.Model
	res     Reservoir
	workers int
	logger  *slog.Logger
}

// NewAssembler returns an assembler over wells. workers <= 0 uses one
// worker per CPU; workers == 1 assembles sequentially.
func NewAssembler(wells []*well.Model, res Reservoir, workers int, logger *slog.Logger) *Assembler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, m := range wells {
		m.SetLogger(logger)
	}
	return &Assembler{wells: wells, res: res, workers: workers, logger: logger}
}

func (a *Assembler) Wells() []*well.Model { return a.wells }
func (a *Assembler) Reservoir() Reservoir  { return a.res }

// states resolves the state of every well, in well order.
func (a *Assembler) states(state *well.State) ([]*well.SingleWellState, error) {
	out := make([]*well.SingleWellState, len(a.wells))
	for i, m := range a.wells {
		ws, err := state.RefByName(m.Name())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStateMismatch, err)
		}
		out[i] = ws
	}
	return out, nil
}

// forEach runs fn for every well on the worker pool. Log records emitted
// by a well during fn are replayed after all wells finish, in well order.
func (a *Assembler) forEach(ctx context.Context, state *well.State, fn func(ctx context.Context, m *well.Model, ws *well.SingleWellState) error) error {
	states, err := a.states(state)
	if err != nil {
		return err
	}

	sinks := make([]*logging.Deferred, len(a.wells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, m := range a.wells {
		sinks[i] = logging.NewDeferred(nil)
		m.SetLogger(slog.New(sinks[i]))
		ws := states[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, m, ws)
		})
	}
	werr := g.Wait()

	var ferr []error
	for i, m := range a.wells {
		ferr = append(ferr, sinks[i].Flush(ctx, a.logger.Handler()))
		m.SetLogger(a.logger)
	}
	if werr != nil {
		return werr
	}
	return errors.Join(ferr...)
}

// prepare seeds the primary variables of m from ws and refreshes the
// connection densities and pressure differences.
func (a *Assembler) prepare(m *well.Model, ws *well.SingleWellState) error {
	if err := m.SetWellVariables(ws); err != nil {
		return err
	}
	conns := m.Definition().Connections
	iqs := make([]reservoir.IntensiveQuantities, len(conns))
	for i, c := range conns {
		iq, err := a.res.Quantities(c.Cell)
		if err != nil {
			return &well.Error{Well: m.Name(), Op: "prepare", Err: err}
		}
		iqs[i] = iq
	}
	if err := m.ComputePerfDensities(iqs, a.res.SurfaceDensity()); err != nil {
		return err
	}
	m.ComputeConnectionPressureDelta()
	return nil
}

// InitializeStates derives a starting solution for every well of a fresh
// state from the inflow of its connections.
func (a *Assembler) InitializeStates(ctx context.Context, state *well.State) error {
	return a.forEach(ctx, state, func(_ context.Context, m *well.Model, ws *well.SingleWellState) error {
		if err := a.prepare(m, ws); err != nil {
			return err
		}
		return m.InitializeState(a.res, ws)
	})
}

// BeginTimestep seeds every well and stores its start of step fractions.
func (a *Assembler) BeginTimestep(ctx context.Context, state *well.State) error {
	return a.forEach(ctx, state, func(_ context.Context, m *well.Model, ws *well.SingleWellState) error {
		if err := a.prepare(m, ws); err != nil {
			return err
		}
		m.ComputeAccumWell()
		return nil
	})
}

// Assemble linearises every well for one Newton iteration. Connection
// contributions are accumulated into out, which is reset first when not
// nil.
func (a *Assembler) Assemble(ctx context.Context, state *well.State, dt float64, out *ReservoirResidual) error {
	if out != nil {
		out.Reset()
	}
	return a.forEach(ctx, state, func(_ context.Context, m *well.Model, ws *well.SingleWellState) error {
		if err := a.prepare(m, ws); err != nil {
			return err
		}
		cc, err := m.AssembleWellEq(a.res, dt, ws)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		if err := out.Add(cc); err != nil {
			return &well.Error{Well: m.Name(), Op: "accumulate", Err: err}
		}
		return nil
	})
}
