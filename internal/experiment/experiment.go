// Package experiment wires a deck into a runnable wells-only solve.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/wellsim/internal/assembly"
	"github.com/san-kum/wellsim/internal/config"
	"github.com/san-kum/wellsim/internal/well"
	"github.com/san-kum/wellsim/internal/welltest"
)

var ErrNotSetup = errors.New("experiment not setup")

// Result is the outcome of one solve.
type Result struct {
	History []assembly.IterationReport
	Econ    []welltest.EconReport
	Elapsed time.Duration
}

func (r *Result) Converged() bool {
	return len(r.History) > 0 && r.History[len(r.History)-1].Converged()
}

type Experiment struct {
	deck   *config.Deck
	logger *slog.Logger

	models []*well.Model
	limits map[string]welltest.Limits
	state  *well.State
	asm    *assembly.Assembler
	solver *assembly.Solver
}

func New(deck *config.Deck, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Experiment{deck: deck, logger: logger}
}

// Setup builds one model per well that is not shut, a fresh state and
// the solver, then derives a starting solution for every well.
func (e *Experiment) Setup(ctx context.Context) error {
	d := e.deck
	state, err := d.NewState()
	if err != nil {
		return err
	}

	var models []*well.Model
	limits := make(map[string]welltest.Limits)
	for _, w := range d.Wells {
		if w.Status == well.Shut {
			e.logger.Info("skipping shut well", "well", w.Definition.Name)
			continue
		}
		m, err := well.NewModel(w.Definition, len(models), d.Usage, d.VFP, d.Params, e.logger)
		if err != nil {
			return err
		}
		models = append(models, m)
		limits[m.Name()] = w.Limits
	}
	if len(models) == 0 {
		return fmt.Errorf("%w: every well is shut", config.ErrInvalidDeck)
	}

	asm := assembly.NewAssembler(models, d.Grid, d.Workers, e.logger)
	solver, err := assembly.NewSolver(asm, d.Options)
	if err != nil {
		return err
	}
	if err := asm.InitializeStates(ctx, state); err != nil {
		return err
	}

	e.models, e.limits, e.state = models, limits, state
	e.asm, e.solver = asm, solver
	e.logger.Debug("experiment ready", "deck", d.Name, "wells", len(models), "phases", d.Usage.String())
	return nil
}

func (e *Experiment) Models() []*well.Model          { return e.models }
func (e *Experiment) State() *well.State             { return e.state }
func (e *Experiment) Solver() *assembly.Solver       { return e.solver }
func (e *Experiment) Assembler() *assembly.Assembler { return e.asm }
func (e *Experiment) Deck() *config.Deck             { return e.deck }

// Run solves the wells against the fixed reservoir and checks the
// economic limits of the result. A run that spends its iteration budget
// returns the result together with assembly.ErrNotConverged.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.solver == nil {
		return nil, ErrNotSetup
	}
	start := time.Now()
	history, err := e.solver.Solve(ctx, e.state)
	res := &Result{History: history, Elapsed: time.Since(start)}
	if err != nil && !errors.Is(err, assembly.ErrNotConverged) {
		return res, err
	}
	econ, cerr := e.Check()
	if cerr != nil {
		return res, cerr
	}
	res.Econ = econ
	return res, err
}

// Check evaluates the ratio limits of every modelled well that has any.
func (e *Experiment) Check() ([]welltest.EconReport, error) {
	if e.state == nil {
		return nil, ErrNotSetup
	}
	tester := welltest.New(e.deck.Usage)
	var out []welltest.EconReport
	for _, m := range e.models {
		lim := e.limits[m.Name()]
		if !lim.Any() {
			continue
		}
		ws, err := e.state.RefByName(m.Name())
		if err != nil {
			return nil, err
		}
		rep := tester.CheckRatioEconLimits(ws, lim)
		if rep.Violated() {
			e.logger.Warn("economic limit violated", "well", m.Name(), "limits", len(rep.Violations))
		}
		out = append(out, rep)
	}
	return out, nil
}
