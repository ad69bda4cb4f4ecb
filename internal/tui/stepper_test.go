package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/wellsim/internal/config"
	"github.com/san-kum/wellsim/internal/experiment"
)

func newModel(t *testing.T) Model {
	t.Helper()
	d, err := config.GetPreset("producer-bhp").Build()
	if err != nil {
		t.Fatal(err)
	}
	exp := experiment.New(d, nil)
	if err := exp.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	m, err := New(context.Background(), exp)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStepKey(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(key("n"))
	m = next.(Model)
	if len(m.History()) != 1 {
		t.Fatalf("expected one iteration, got %d", len(m.History()))
	}
	if m.History()[0].Iteration != 0 {
		t.Errorf("expected iteration 0, got %d", m.History()[0].Iteration)
	}
}

func TestRunKeyFinishes(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(key("r"))
	m = next.(Model)
	if !m.Done() {
		t.Fatal("expected the solve to finish")
	}
	if m.Err() != nil {
		t.Fatalf("unexpected error: %v", m.Err())
	}
	n := len(m.History())
	if !m.History()[n-1].Converged() {
		t.Error("last iteration not converged")
	}

	// stepping a finished solve is a no-op
	next, _ = m.Update(key("n"))
	if got := len(next.(Model).History()); got != n {
		t.Errorf("history grew after completion: %d -> %d", n, got)
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestViewListsWells(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(key("r"))
	view := next.(Model).View()
	for _, want := range []string{"PROD1", "producer", "done"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestNewRequiresSetup(t *testing.T) {
	d, err := config.GetPreset("producer-bhp").Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(context.Background(), experiment.New(d, nil)); err == nil {
		t.Error("expected an error for an experiment that is not set up")
	}
}
