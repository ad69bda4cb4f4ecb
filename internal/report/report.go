// Package report renders solver results for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/wellsim/internal/assembly"
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/well"
	"github.com/san-kum/wellsim/internal/welltest"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Iterations writes one row per Newton iteration.
func Iterations(w io.Writer, history []assembly.IterationReport) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ITER\tVERDICT\tMAX RESIDUAL\tFAILURES\tSWITCHED")
	for _, rep := range history {
		v := rep.Convergence.Verdict()
		switched := "-"
		if len(rep.Switched) > 0 {
			switched = strings.Join(rep.Switched, ",")
		}
		fmt.Fprintf(tw, "%d\t%s\t%.3e\t%d\t%s\n",
			rep.Iteration,
			VerdictStyle(v).Render(v.String()),
			rep.MaxResidual,
			len(rep.Convergence.Failures),
			switched,
		)
	}
	return tw.Flush()
}

// Wells writes the solved state of every model, in model order. Rates
// are surface rates of the active phases.
func Wells(w io.Writer, models []*well.Model, state *well.State) error {
	if len(models) == 0 {
		_, err := fmt.Fprintln(w, Subtle.Render("no wells"))
		return err
	}
	pu := models[0].Usage()
	phases := pu.Phases()

	tw := newTable(w)
	cols := []string{"WELL", "TYPE", "STATUS", "CONTROL", "BHP [bar]", "THP [bar]"}
	for _, p := range phases {
		cols = append(cols, strings.ToUpper(p.String())+" [m3/d]")
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))

	for _, m := range models {
		ws, err := state.RefByName(m.Name())
		if err != nil {
			return err
		}
		def := m.Definition()
		mode := "-"
		if ws.Control >= 0 && ws.Control < len(def.Controls) {
			mode = def.Controls[ws.Control].Mode.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f", ws.Name, def.Type, ws.Status, mode, ws.BHP/1e5, ws.THP/1e5)
		for _, p := range phases {
			fmt.Fprintf(tw, "\t%.3f", ws.SurfaceRates[p]*86400)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// Econ writes the ratio limit checks. Wells without violations are listed
// as ok.
func Econ(w io.Writer, reports []welltest.EconReport) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "WELL\tLIMIT\tVALUE\tMAX\tSTATE")
	for _, r := range reports {
		if !r.Violated() {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", r.Well, Good.Render("ok"))
			continue
		}
		for _, v := range r.Violations {
			fmt.Fprintf(tw, "%s\t%s\t%.4g\t%.4g\t%s\n", r.Well, v.Limit, v.Ratio, v.Max, Bad.Render("violated"))
		}
	}
	return tw.Flush()
}

// ResidualHistory is the base-10 logarithm of the largest residual of each
// iteration. Zero residuals are clamped to 1e-16.
func ResidualHistory(history []assembly.IterationReport) []float64 {
	out := make([]float64, len(history))
	for i, rep := range history {
		out[i] = math.Log10(math.Max(rep.MaxResidual, 1e-16))
	}
	return out
}

// ResidualPlot draws the residual history as an ascii chart.
func ResidualPlot(history []assembly.IterationReport, width, height int) string {
	data := ResidualHistory(history)
	if len(data) == 0 {
		return Subtle.Render("no iterations")
	}
	if len(data) == 1 {
		// asciigraph needs two points for a line
		data = append(data, data[0])
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10 max well residual per iteration"),
	)
}

// Summary is a one-line outcome of a solve.
func Summary(history []assembly.IterationReport, err error) string {
	if len(history) == 0 {
		return Bad.Render("no iterations")
	}
	last := history[len(history)-1]
	v := last.Convergence.Verdict()
	line := fmt.Sprintf("%s after %d iteration(s), max residual %.3e",
		VerdictStyle(v).Render(v.String()), len(history), last.MaxResidual)
	if err != nil {
		line += " " + Bad.Render(err.Error())
	}
	return line
}

// PhaseHeader names the active phases of pu, separated by slashes.
func PhaseHeader(pu phase.Usage) string {
	names := make([]string, 0, pu.NumPhases())
	for _, p := range pu.Phases() {
		names = append(names, p.String())
	}
	return strings.Join(names, "/")
}
