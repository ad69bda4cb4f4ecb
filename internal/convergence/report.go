// Package convergence scores well equation residuals against the solver
// tolerances and aggregates per-well verdicts.
//
// A residual is classified against three thresholds:
//
//   - MaxResidualAllowed, an absolute ceiling signalling divergence
//   - Standard, the normal pass tolerance
//   - Relaxed, usable only when relaxation is requested and the well is
//     stopped
//
// Convergence failure is data, never an error.
package convergence

import (
	"fmt"
	"math"
	"strings"
)

type Tolerances struct {
	MaxResidualAllowed float64
	Standard           float64
	Relaxed            float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		MaxResidualAllowed: 1e7,
		Standard:           1e-4,
		Relaxed:            1e-3,
	}
}

// Severity of a failed equation.
type Severity int

const (
	None Severity = iota
	Normal
	TooLarge
	NotANumber
)

func (s Severity) String() string {
	return [...]string{"none", "normal", "too large", "NaN"}[s]
}

// Status of one equation.
type Status int

const (
	Passed Status = iota
	PassedRelaxed
	Failed
)

func (s Status) String() string {
	return [...]string{"passed", "passed (relaxed)", "failed"}[s]
}

type Verdict int

const (
	Converged Verdict = iota
	ConvergedRelaxed
	NotConverged
)

func (v Verdict) String() string {
	return [...]string{"converged", "converged (relaxed)", "not converged"}[v]
}

type Equation struct {
	Index    int
	Residual float64
	Status   Status
	Severity Severity
}

type Failure struct {
	Well     string
	Equation int
	Severity Severity
	Residual float64
}

func (f Failure) String() string {
	return fmt.Sprintf("%s eq %d: %v (%g)", f.Well, f.Equation, f.Severity, f.Residual)
}

type WellReport struct {
	Well      string
	Stopped   bool
	Equations []Equation
	Verdict   Verdict
}

// Report collects the well reports of one Newton iteration.
type Report struct {
	Wells    []WellReport
	Failures []Failure
}

// Evaluate scores the residuals of one well. scale multiplies each residual
// before classification; a nil scale means 1.
func Evaluate(well string, res, scale []float64, tol Tolerances, relax, stopped bool) Report {
	wr := WellReport{Well: well, Stopped: stopped, Equations: make([]Equation, len(res))}
	var failures []Failure
	useRelaxed := relax && stopped

	verdict := Converged
	for i, r := range res {
		s := 1.0
		if i < len(scale) {
			s = scale[i]
		}
		v := s * math.Abs(r)
		eq := Equation{Index: i, Residual: v}

		switch {
		case math.IsNaN(v):
			eq.Status, eq.Severity = Failed, NotANumber
		case v > tol.MaxResidualAllowed:
			eq.Status, eq.Severity = Failed, TooLarge
		case v <= tol.Standard:
			eq.Status = Passed
		case useRelaxed && v <= tol.Relaxed:
			eq.Status = PassedRelaxed
		default:
			eq.Status, eq.Severity = Failed, Normal
		}

		switch eq.Status {
		case Failed:
			verdict = NotConverged
			failures = append(failures, Failure{Well: well, Equation: i, Severity: eq.Severity, Residual: v})
		case PassedRelaxed:
			if verdict == Converged {
				verdict = ConvergedRelaxed
			}
		}
		wr.Equations[i] = eq
	}
	wr.Verdict = verdict
	return Report{Wells: []WellReport{wr}, Failures: failures}
}

// Merge appends the wells and failures of o.
func (r *Report) Merge(o Report) {
	r.Wells = append(r.Wells, o.Wells...)
	r.Failures = append(r.Failures, o.Failures...)
}

// Verdict aggregates the well verdicts: any failure means not converged.
func (r Report) Verdict() Verdict {
	v := Converged
	for _, w := range r.Wells {
		if w.Verdict > v {
			v = w.Verdict
		}
	}
	return v
}

func (r Report) Converged() bool { return r.Verdict() != NotConverged }

// WorstSeverity is the most severe failure in the report.
func (r Report) WorstSeverity() Severity {
	s := None
	for _, f := range r.Failures {
		if f.Severity > s {
			s = f.Severity
		}
	}
	return s
}

// MaxResidual is the largest scaled residual, NaN when any is NaN.
func (r Report) MaxResidual() float64 {
	m := 0.0
	for _, w := range r.Wells {
		for _, e := range w.Equations {
			if math.IsNaN(e.Residual) {
				return math.NaN()
			}
			m = math.Max(m, e.Residual)
		}
	}
	return m
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v", r.Verdict())
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "; %v", f)
	}
	return b.String()
}
