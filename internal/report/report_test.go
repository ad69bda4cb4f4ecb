package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/wellsim/internal/assembly"
	"github.com/san-kum/wellsim/internal/config"
	"github.com/san-kum/wellsim/internal/convergence"
	"github.com/san-kum/wellsim/internal/experiment"
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/welltest"
)

func history() []assembly.IterationReport {
	notConverged := convergence.Report{
		Wells:    []convergence.WellReport{{Well: "PROD1", Verdict: convergence.NotConverged}},
		Failures: []convergence.Failure{{Well: "PROD1", Equation: 0, Severity: convergence.Normal, Residual: 1}},
	}
	return []assembly.IterationReport{
		{Iteration: 0, Convergence: notConverged, MaxResidual: 1, Switched: []string{"PROD1"}},
		{Iteration: 1, Convergence: notConverged, MaxResidual: 1e-3},
		{Iteration: 2, MaxResidual: 0},
	}
}

func TestIterations(t *testing.T) {
	var buf bytes.Buffer
	if err := Iterations(&buf, history()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "PROD1") || !strings.Contains(lines[1], "not converged") {
		t.Errorf("row 0 = %q", lines[1])
	}
	if !strings.Contains(lines[3], "converged") || strings.Contains(lines[3], "not") {
		t.Errorf("row 2 = %q", lines[3])
	}
}

func TestResidualHistory(t *testing.T) {
	got := ResidualHistory(history())
	want := []float64{0, -3, -16}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestResidualPlot(t *testing.T) {
	plot := ResidualPlot(history(), 40, 8)
	if !strings.Contains(plot, "log10 max well residual") {
		t.Errorf("missing caption:\n%s", plot)
	}
	if single := ResidualPlot(history()[:1], 40, 4); single == "" {
		t.Error("single iteration plot is empty")
	}
	if empty := ResidualPlot(nil, 40, 4); !strings.Contains(empty, "no iterations") {
		t.Errorf("empty plot = %q", empty)
	}
}

func TestSummary(t *testing.T) {
	if s := Summary(history(), nil); !strings.Contains(s, "3 iteration(s)") {
		t.Errorf("summary = %q", s)
	}
	s := Summary(history()[:2], errors.New("budget spent"))
	if !strings.Contains(s, "not converged") || !strings.Contains(s, "budget spent") {
		t.Errorf("summary = %q", s)
	}
}

func TestEcon(t *testing.T) {
	var buf bytes.Buffer
	reports := []welltest.EconReport{
		{Well: "PROD1"},
		{Well: "PROD2", Violations: []welltest.Violation{{Limit: "water cut", Ratio: 0.6, Max: 0.5}}},
	}
	if err := Econ(&buf, reports); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "ok") || !strings.Contains(out, "water cut") || !strings.Contains(out, "violated") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestWells(t *testing.T) {
	d, err := config.GetPreset("producer-bhp").Build()
	if err != nil {
		t.Fatal(err)
	}
	e := experiment.New(d, nil)
	if err := e.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Wells(&buf, e.Models(), e.State()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"WATER [m3/d]", "GAS [m3/d]", "PROD1", "BHP", "150.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := Wells(&buf, nil, e.State()); err != nil || !strings.Contains(buf.String(), "no wells") {
		t.Errorf("empty table = %q, %v", buf.String(), err)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("empty sparkline = %q", got)
	}
	s := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 4)
	if n := strings.Count(s, "█"); n != 1 {
		t.Errorf("expected one full block in %q", s)
	}
}

func TestPhaseHeader(t *testing.T) {
	if got := PhaseHeader(phase.NewUsage(true, true, false)); got != "water/oil" {
		t.Errorf("PhaseHeader = %q", got)
	}
}
