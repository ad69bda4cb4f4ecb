package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/san-kum/wellsim/internal/convergence"
	"github.com/san-kum/wellsim/internal/well"
)

type Options struct {
	Dt            float64
	MaxIterations int
	Tolerances    convergence.Tolerances
	// Relax allows the relaxed tolerance for stopped wells.
	Relax bool
}

func DefaultOptions() Options {
	return Options{
		Dt:            86400,
		MaxIterations: 20,
		Tolerances:    convergence.DefaultTolerances(),
	}
}

func (o Options) validate() error {
	if o.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", o.Dt)
	}
	if o.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	}
	return nil
}

// IterationReport describes one Newton iteration of the wells.
type IterationReport struct {
	Iteration   int
	Convergence convergence.Report
	MaxResidual float64
	// Switched lists the wells that changed control after the update.
	Switched []string
}

func (r IterationReport) Converged() bool { return r.Convergence.Converged() }

// Solver runs the wells-only Newton loop: the reservoir is held fixed and
// every well is solved against it.
type Solver struct {
	asm       *Assembler
	opts      Options
	logger    *slog.Logger
	observers []func(IterationReport)
	iteration int
}

func NewSolver(asm *Assembler, opts Options) (*Solver, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Solver{asm: asm, opts: opts, logger: asm.logger}, nil
}

// OnIteration registers fn to receive every iteration report.
func (s *Solver) OnIteration(fn func(IterationReport)) { s.observers = append(s.observers, fn) }

func (s *Solver) Options() Options { return s.opts }
func (s *Solver) Iteration() int   { return s.iteration }

// Begin starts a timestep from state.
func (s *Solver) Begin(ctx context.Context, state *well.State) error {
	s.iteration = 0
	return s.asm.BeginTimestep(ctx, state)
}

// Step performs one Newton iteration. When the assembled wells already
// converge the state is left untouched.
func (s *Solver) Step(ctx context.Context, state *well.State) (IterationReport, error) {
	rep := IterationReport{Iteration: s.iteration}
	if err := s.asm.Assemble(ctx, state, s.opts.Dt, nil); err != nil {
		return rep, &IterationError{Iteration: s.iteration, Wrapped: err}
	}

	bAvg := s.asm.res.AverageB()
	for _, m := range s.asm.wells {
		ws, err := state.RefByName(m.Name())
		if err != nil {
			return rep, fmt.Errorf("%w: %v", ErrStateMismatch, err)
		}
		rep.Convergence.Merge(m.GetWellConvergence(ws, bAvg, s.opts.Tolerances, s.opts.Relax))
	}
	rep.MaxResidual = rep.Convergence.MaxResidual()

	if !rep.Converged() {
		var mu sync.Mutex
		err := s.asm.forEach(ctx, state, func(_ context.Context, m *well.Model, ws *well.SingleWellState) error {
			if _, err := m.SolveEqAndUpdateWellState(ws); err != nil {
				return err
			}
			switched, err := m.UpdateWellControl(ws)
			if err != nil {
				return err
			}
			if switched {
				mu.Lock()
				rep.Switched = append(rep.Switched, m.Name())
				mu.Unlock()
			}
			return nil
		})
		if err != nil {
			return rep, &IterationError{Iteration: s.iteration, Wrapped: err}
		}
		slices.Sort(rep.Switched)
	}

	s.logger.Debug("well iteration",
		"iteration", rep.Iteration,
		"verdict", rep.Convergence.Verdict().String(),
		"max_residual", rep.MaxResidual)
	for _, fn := range s.observers {
		fn(rep)
	}
	s.iteration++
	return rep, nil
}

// Solve iterates until every well converges or the iteration budget is
// spent. The context is checked between iterations.
func (s *Solver) Solve(ctx context.Context, state *well.State) ([]IterationReport, error) {
	if err := s.Begin(ctx, state); err != nil {
		return nil, err
	}
	var history []IterationReport
	for i := 0; i < s.opts.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return history, ctx.Err()
		default:
		}

		rep, err := s.Step(ctx, state)
		if err != nil {
			return history, err
		}
		history = append(history, rep)
		if rep.Converged() {
			s.logger.Info("wells converged", "iterations", i+1, "verdict", rep.Convergence.Verdict().String())
			return history, nil
		}
	}
	return history, fmt.Errorf("%w after %d iterations", ErrNotConverged, s.opts.MaxIterations)
}
