package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/wellsim/internal/convergence"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#444466"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	Good = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	Warn = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	Bad  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// VerdictStyle colours a convergence verdict.
func VerdictStyle(v convergence.Verdict) lipgloss.Style {
	switch v {
	case convergence.Converged:
		return Good
	case convergence.ConvergedRelaxed:
		return Warn
	}
	return Bad
}

// Sparkline renders values as a row of block characters, high values
// green and low values red.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	// keep the most recent values
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(Bad.Render(c))
		case norm > 0.3:
			b.WriteString(Warn.Render(c))
		default:
			b.WriteString(Good.Render(c))
		}
	}
	return b.String()
}
