package convergence

import (
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tol := Tolerances{MaxResidualAllowed: 1e3, Standard: 1e-4, Relaxed: 1e-2}

	tests := []struct {
		name     string
		res      []float64
		relax    bool
		stopped  bool
		verdict  Verdict
		severity Severity
	}{
		{"all pass", []float64{1e-6, -5e-5}, false, false, Converged, None},
		{"normal failure", []float64{1e-6, 1e-3}, false, false, NotConverged, Normal},
		{"relaxed needs stopped", []float64{1e-3}, true, false, NotConverged, Normal},
		{"relaxed needs request", []float64{1e-3}, false, true, NotConverged, Normal},
		{"relaxed pass", []float64{1e-5, 1e-3}, true, true, ConvergedRelaxed, None},
		{"beyond relaxed", []float64{5e-2}, true, true, NotConverged, Normal},
		{"too large", []float64{1e4}, true, true, NotConverged, TooLarge},
		{"nan", []float64{0, math.NaN()}, false, false, NotConverged, NotANumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate("W", tt.res, nil, tol, tt.relax, tt.stopped)
			if got := r.Verdict(); got != tt.verdict {
				t.Errorf("Verdict() = %v, want %v", got, tt.verdict)
			}
			if got := r.WorstSeverity(); got != tt.severity {
				t.Errorf("WorstSeverity() = %v, want %v", got, tt.severity)
			}
		})
	}
}

func TestEvaluate_Scaling(t *testing.T) {
	tol := DefaultTolerances()
	r := Evaluate("W", []float64{-5e-5}, []float64{10}, tol, false, false)
	if r.Converged() {
		t.Errorf("scaled residual 5e-4 should fail, report %v", r)
	}
	if got := r.MaxResidual(); math.Abs(got-5e-4) > 1e-15 {
		t.Errorf("MaxResidual() = %v, want 5e-4", got)
	}
	if r.Wells[0].Equations[0].Status != Failed {
		t.Errorf("status = %v, want failed", r.Wells[0].Equations[0].Status)
	}
}

func TestReport_Merge(t *testing.T) {
	tol := DefaultTolerances()
	var total Report
	total.Merge(Evaluate("A", []float64{0}, nil, tol, false, false))
	if total.Verdict() != Converged {
		t.Fatalf("expected converged, got %v", total.Verdict())
	}
	total.Merge(Evaluate("B", []float64{5e-4}, nil, tol, true, true))
	if total.Verdict() != ConvergedRelaxed {
		t.Errorf("expected converged relaxed, got %v", total.Verdict())
	}
	total.Merge(Evaluate("C", []float64{1}, nil, tol, false, false))
	if total.Verdict() != NotConverged {
		t.Errorf("expected not converged, got %v", total.Verdict())
	}
	if len(total.Wells) != 3 || len(total.Failures) != 1 || total.Failures[0].Well != "C" {
		t.Errorf("unexpected merged report %+v", total)
	}
}
