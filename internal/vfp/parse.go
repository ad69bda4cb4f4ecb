package vfp

import (
	"fmt"
	"strings"
)

var (
	floNames = map[string]FloType{"oil": FloOil, "liq": FloLiquid, "liquid": FloLiquid, "gas": FloGas}
	wfrNames = map[string]WFRType{"wct": WFRWaterCut, "wor": WFRWaterOilRatio, "wgr": WFRWaterGasRatio}
	gfrNames = map[string]GFRType{"gor": GFRGasOilRatio, "glr": GFRGasLiquidRatio, "ogr": GFROilGasRatio}
)

// ParseFlo accepts oil, liquid (or liq) and gas. The empty string is oil.
func ParseFlo(s string) (FloType, error) {
	return parseKind(s, floNames, FloOil, "flo")
}

// ParseWFR accepts wct, wor and wgr. The empty string is wct.
func ParseWFR(s string) (WFRType, error) {
	return parseKind(s, wfrNames, WFRWaterCut, "wfr")
}

// ParseGFR accepts gor, glr and ogr. The empty string is gor.
func ParseGFR(s string) (GFRType, error) {
	return parseKind(s, gfrNames, GFRGasOilRatio, "gfr")
}

func parseKind[T any](s string, names map[string]T, def T, what string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	if v, ok := names[s]; ok {
		return v, nil
	}
	return def, fmt.Errorf("%w: unknown %s type %q", ErrInvalidTable, what, s)
}
