package phase

import (
	"errors"
	"fmt"
	"strings"
)

// Phase identifies a fluid phase or tracked component in canonical order.
// Solvent is an extra component carried alongside the three phases.
type Phase int

const (
	Water Phase = iota
	Oil
	Gas
	Solvent
)

const (
	NumPhases     = 3
	MaxComponents = 4
)

var ErrUnknownPhase = errors.New("phase: unknown phase")

var names = [MaxComponents]string{"water", "oil", "gas", "solvent"}

func (p Phase) String() string {
	if p < 0 || int(p) >= MaxComponents {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return names[p]
}

func Parse(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "water", "aqua", "w":
		return Water, nil
	case "oil", "liquid", "o":
		return Oil, nil
	case "gas", "vapour", "vapor", "g":
		return Gas, nil
	case "solvent", "s":
		return Solvent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// Vector holds one value per canonical component. Entries of inactive
// components are ignored.
type Vector [MaxComponents]float64

// Sum adds the entries of the active components.
func (v Vector) Sum(u Usage) float64 {
	s := 0.0
	for _, c := range u.Components() {
		s += v[c]
	}
	return s
}

// Usage is the active-phase mask of a run.
type Usage struct {
	Active     [NumPhases]bool
	HasSolvent bool
}

func NewUsage(water, oil, gas bool) Usage {
	return Usage{Active: [NumPhases]bool{water, oil, gas}}
}

func ThreePhase() Usage { return NewUsage(true, true, true) }

// ParseUsage builds a mask from phase names such as "water,oil,gas".
func ParseUsage(list []string) (Usage, error) {
	var u Usage
	for _, s := range list {
		p, err := Parse(s)
		if err != nil {
			return Usage{}, err
		}
		if p == Solvent {
			u.HasSolvent = true
			continue
		}
		u.Active[p] = true
	}
	if u.NumPhases() == 0 {
		return Usage{}, fmt.Errorf("%w: no active phase", ErrUnknownPhase)
	}
	return u, nil
}

func (u Usage) IsActive(c Phase) bool {
	switch {
	case c == Solvent:
		return u.HasSolvent
	case c >= 0 && c < NumPhases:
		return u.Active[c]
	}
	return false
}

func (u Usage) NumPhases() int {
	n := 0
	for _, a := range u.Active {
		if a {
			n++
		}
	}
	return n
}

func (u Usage) NumComponents() int {
	n := u.NumPhases()
	if u.HasSolvent {
		n++
	}
	return n
}

// Phases lists the active phases in canonical order.
func (u Usage) Phases() []Phase {
	out := make([]Phase, 0, NumPhases)
	for p := Water; p < NumPhases; p++ {
		if u.Active[p] {
			out = append(out, p)
		}
	}
	return out
}

// Components lists active phases followed by solvent when tracked.
func (u Usage) Components() []Phase {
	out := u.Phases()
	if u.HasSolvent {
		out = append(out, Solvent)
	}
	return out
}

// Pos returns the position of c among the active components, or -1.
func (u Usage) Pos(c Phase) int {
	for i, p := range u.Components() {
		if p == c {
			return i
		}
	}
	return -1
}

// Derived is the phase whose fraction closes the simplex: oil when active,
// otherwise the last active phase. It is -1 when no phase is active.
func (u Usage) Derived() Phase {
	if u.Active[Oil] {
		return Oil
	}
	ph := u.Phases()
	if len(ph) == 0 {
		return -1
	}
	return ph[len(ph)-1]
}

// Independent lists the components that carry their own fraction unknown,
// that is every active component except Derived.
func (u Usage) Independent() []Phase {
	d := u.Derived()
	out := make([]Phase, 0, MaxComponents)
	for _, c := range u.Components() {
		if c != d {
			out = append(out, c)
		}
	}
	return out
}

func (u Usage) String() string {
	parts := make([]string, 0, MaxComponents)
	for _, c := range u.Components() {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}
