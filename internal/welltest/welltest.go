// Package welltest checks producing wells against ratio economic limits:
// water cut, gas-oil ratio and water-gas ratio, at well and connection
// level.
package welltest

import (
	"github.com/san-kum/wellsim/internal/phase"
	"github.com/san-kum/wellsim/internal/well"
)

// RatioFunc maps surface rates (production negative) to a ratio.
type RatioFunc func(rates phase.Vector, pu phase.Usage) float64

// bigRatio stands in for an unbounded ratio when the denominator phase is
// not flowing.
const bigRatio = 1e100

// WaterCut is water over liquid production.
func WaterCut(rates phase.Vector, pu phase.Usage) float64 {
	if !pu.IsActive(phase.Water) || !pu.IsActive(phase.Oil) {
		return 0
	}
	water, oil := -rates[phase.Water], -rates[phase.Oil]
	switch {
	case water <= 0:
		return 0
	case oil <= 0:
		return 1
	}
	return water / (water + oil)
}

func GasOilRatio(rates phase.Vector, pu phase.Usage) float64 {
	if !pu.IsActive(phase.Gas) || !pu.IsActive(phase.Oil) {
		return 0
	}
	gas, oil := -rates[phase.Gas], -rates[phase.Oil]
	switch {
	case gas <= 0:
		return 0
	case oil <= 0:
		return bigRatio
	}
	return gas / oil
}

func WaterGasRatio(rates phase.Vector, pu phase.Usage) float64 {
	if !pu.IsActive(phase.Water) || !pu.IsActive(phase.Gas) {
		return 0
	}
	water, gas := -rates[phase.Water], -rates[phase.Gas]
	switch {
	case water <= 0:
		return 0
	case gas <= 0:
		return bigRatio
	}
	return water / gas
}

// Tester evaluates limits for the wells of one phase configuration.
type Tester struct {
	pu phase.Usage
}

func New(pu phase.Usage) *Tester {
	return &Tester{pu: pu}
}

func (t *Tester) activeRates(v phase.Vector) phase.Vector {
	var out phase.Vector
	for _, p := range t.pu.Phases() {
		out[p] = v[p]
	}
	return out
}

// CheckMaxRatioLimitWell reports whether the well ratio strictly exceeds
// maxRatio.
func (t *Tester) CheckMaxRatioLimitWell(ws *well.SingleWellState, maxRatio float64, ratio RatioFunc) bool {
	return ratio(t.activeRates(ws.SurfaceRates), t.pu) > maxRatio
}

// CompletionCheck is the outcome of a connection level ratio check.
type CompletionCheck struct {
	Violated        bool
	WorstConnection int // -1 when no connection flows
	WorstRatio      float64
}

// CheckMaxRatioLimitCompletions finds the connection with the largest
// ratio and reports whether it exceeds maxRatio.
func (t *Tester) CheckMaxRatioLimitCompletions(ws *well.SingleWellState, maxRatio float64, ratio RatioFunc) CompletionCheck {
	res := CompletionCheck{WorstConnection: -1}
	for i, q := range ws.PerfRates {
		r := ratio(t.activeRates(q), t.pu)
		if res.WorstConnection < 0 || r > res.WorstRatio {
			res.WorstConnection = i
			res.WorstRatio = r
		}
	}
	res.Violated = res.WorstConnection >= 0 && res.WorstRatio > maxRatio
	return res
}

// Limits holds the ratio limits of a well. A zero limit is not checked.
type Limits struct {
	MaxWaterCut      float64 `yaml:"max_water_cut,omitempty"`
	MaxGasOilRatio   float64 `yaml:"max_gas_oil_ratio,omitempty"`
	MaxWaterGasRatio float64 `yaml:"max_water_gas_ratio,omitempty"`
}

func (l Limits) Any() bool {
	return l.MaxWaterCut > 0 || l.MaxGasOilRatio > 0 || l.MaxWaterGasRatio > 0
}

// Violation is one broken ratio limit.
type Violation struct {
	Limit           string
	Ratio           float64
	Max             float64
	WorstConnection int
}

// EconReport collects the ratio limits a well violates.
type EconReport struct {
	Well       string
	Violations []Violation
}

func (r EconReport) Violated() bool { return len(r.Violations) > 0 }

// CheckRatioEconLimits evaluates every configured limit of a producer.
// Injectors and stopped wells never violate ratio limits.
func (t *Tester) CheckRatioEconLimits(ws *well.SingleWellState, limits Limits) EconReport {
	rep := EconReport{Well: ws.Name}
	if !ws.Producer || ws.Status != well.Open {
		return rep
	}
	checks := []struct {
		name  string
		max   float64
		ratio RatioFunc
	}{
		{"water cut", limits.MaxWaterCut, WaterCut},
		{"gas-oil ratio", limits.MaxGasOilRatio, GasOilRatio},
		{"water-gas ratio", limits.MaxWaterGasRatio, WaterGasRatio},
	}
	for _, c := range checks {
		if c.max <= 0 || !t.CheckMaxRatioLimitWell(ws, c.max, c.ratio) {
			continue
		}
		comp := t.CheckMaxRatioLimitCompletions(ws, c.max, c.ratio)
		rep.Violations = append(rep.Violations, Violation{
			Limit:           c.name,
			Ratio:           c.ratio(t.activeRates(ws.SurfaceRates), t.pu),
			Max:             c.max,
			WorstConnection: comp.WorstConnection,
		})
	}
	return rep
}
