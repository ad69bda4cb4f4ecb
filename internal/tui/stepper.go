// Package tui is an interactive stepper over the Newton iterations of a
// wells-only solve.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/wellsim/internal/assembly"
	"github.com/san-kum/wellsim/internal/experiment"
	"github.com/san-kum/wellsim/internal/report"
)

type Model struct {
	ctx     context.Context
	exp     *experiment.Experiment
	history []assembly.IterationReport
	cursor  int
	done    bool
	err     error
	width   int
	height  int
}

// New starts a timestep on the experiment state. exp must be set up.
func New(ctx context.Context, exp *experiment.Experiment) (Model, error) {
	if exp.Solver() == nil {
		return Model{}, experiment.ErrNotSetup
	}
	if err := exp.Solver().Begin(ctx, exp.State()); err != nil {
		return Model{}, err
	}
	return Model{ctx: ctx, exp: exp, width: 80, height: 24}, nil
}

func (m Model) History() []assembly.IterationReport { return m.history }
func (m Model) Done() bool                          { return m.done }
func (m Model) Err() error                          { return m.err }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "n", " ":
		m.step()
	case "r":
		for !m.done {
			m.step()
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.exp.Models())-1 {
			m.cursor++
		}
	}
	return m, nil
}

// step runs one iteration unless the solve has finished.
func (m *Model) step() {
	if m.done {
		return
	}
	rep, err := m.exp.Solver().Step(m.ctx, m.exp.State())
	if err != nil {
		m.err, m.done = err, true
		return
	}
	m.history = append(m.history, rep)
	switch {
	case rep.Converged():
		m.done = true
	case len(m.history) >= m.exp.Solver().Options().MaxIterations:
		m.err = fmt.Errorf("%w after %d iterations", assembly.ErrNotConverged, len(m.history))
		m.done = true
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(report.Title.Render("wellsim") + report.Subtle.Render("  "+m.exp.Deck().Name) + "\n\n")

	status := report.Warn.Render("iterating")
	if m.done {
		status = report.Good.Render("done")
		if m.err != nil && !errors.Is(m.err, context.Canceled) {
			status = report.Bad.Render(m.err.Error())
		}
	}
	fmt.Fprintf(&b, "%s %s   %s %d\n",
		report.Label.Render("status"), status,
		report.Label.Render("iteration"), len(m.history))

	if n := len(m.history); n > 0 {
		last := m.history[n-1]
		v := last.Convergence.Verdict()
		fmt.Fprintf(&b, "%s %s   %s %s\n",
			report.Label.Render("verdict"), report.VerdictStyle(v).Render(v.String()),
			report.Label.Render("max residual"), report.Value.Render(fmt.Sprintf("%.3e", last.MaxResidual)))
		b.WriteString(report.Label.Render("history ") + report.Sparkline(report.ResidualHistory(m.history), m.width-10) + "\n")
		if len(last.Switched) > 0 {
			b.WriteString(report.Warn.Render("switched: "+strings.Join(last.Switched, ", ")) + "\n")
		}
	}
	b.WriteString("\n")

	var wells strings.Builder
	if err := report.Wells(&wells, m.exp.Models(), m.exp.State()); err != nil {
		wells.WriteString(report.Bad.Render(err.Error()))
	}
	lines := strings.Split(strings.TrimRight(wells.String(), "\n"), "\n")
	for i, line := range lines {
		// row 0 is the header
		if i == m.cursor+1 {
			line = report.Value.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + report.KeyHint.Render("n/space step  r run  j/k select  q quit"))
	return report.Panel.Render(b.String())
}

// Run steps exp interactively until the user quits.
func Run(ctx context.Context, exp *experiment.Experiment) (Model, error) {
	m, err := New(ctx, exp)
	if err != nil {
		return m, err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}
