package value

import (
	"math"
	"strings"
)

type unitInfo struct {
	dimension string
	// factor is the size of one unit in the dimension's canonical unit
	factor float64
}

var units = map[string]unitInfo{
	// length, canonical px
	"px": {"length", 1},
	"cm": {"length", 96 / 2.54},
	"mm": {"length", 96 / 25.4},
	"q":  {"length", 96 / 101.6},
	"in": {"length", 96},
	"pt": {"length", 4.0 / 3.0},
	"pc": {"length", 16},

	// angle, canonical deg
	"deg":  {"angle", 1},
	"grad": {"angle", 0.9},
	"rad":  {"angle", 180 / math.Pi},
	"turn": {"angle", 360},

	// time, canonical s
	"s":  {"time", 1},
	"ms": {"time", 0.001},

	// frequency, canonical hz
	"hz":  {"frequency", 1},
	"khz": {"frequency", 1000},

	// resolution, canonical dppx
	"dppx": {"resolution", 1},
	"dpi":  {"resolution", 1.0 / 96},
	"dpcm": {"resolution", 2.54 / 96},
	"x":    {"resolution", 1},
}

func lookupUnit(u string) (unitInfo, bool) {
	info, ok := units[strings.ToLower(u)]
	return info, ok
}

// unitFactor returns the multiplier converting a quantity in unit from into
// unit to, or false when the units are not interconvertible.
func unitFactor(from, to string) (float64, bool) {
	if from == to {
		return 1, true
	}
	fi, ok := lookupUnit(from)
	if !ok {
		return 0, false
	}
	ti, ok := lookupUnit(to)
	if !ok || fi.dimension != ti.dimension {
		return 0, false
	}
	return fi.factor / ti.factor, true
}

// ConvertibleUnits reports whether two simple units measure the same dimension
func ConvertibleUnits(a, b string) bool {
	_, ok := unitFactor(a, b)
	return ok
}

// conversionFactor computes the multiplier converting a value with units
// fromNumer/fromDenom into toNumer/toDenom. Every unit must be matched.
func conversionFactor(fromNumer, fromDenom, toNumer, toDenom []string) (float64, bool) {
	factor := 1.0
	remaining := append([]string(nil), fromNumer...)
	for _, to := range toNumer {
		f, idx := matchUnit(remaining, to)
		if idx < 0 {
			return 0, false
		}
		factor *= f
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	if len(remaining) > 0 {
		return 0, false
	}

	remaining = append([]string(nil), fromDenom...)
	for _, to := range toDenom {
		f, idx := matchUnit(remaining, to)
		if idx < 0 {
			return 0, false
		}
		factor /= f
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	if len(remaining) > 0 {
		return 0, false
	}
	return factor, true
}

func matchUnit(candidates []string, to string) (float64, int) {
	for i, from := range candidates {
		if f, ok := unitFactor(from, to); ok {
			return f, i
		}
	}
	return 0, -1
}

// simplifyUnits cancels numerator units against compatible denominator
// units and returns the scale factor the cancellation applied.
func simplifyUnits(numer, denom []string) ([]string, []string, float64) {
	factor := 1.0
	outNumer := make([]string, 0, len(numer))
	outDenom := append([]string(nil), denom...)

	for _, n := range numer {
		matched := false
		for i, d := range outDenom {
			if f, ok := unitFactor(n, d); ok {
				factor *= f
				outDenom = append(outDenom[:i], outDenom[i+1:]...)
				matched = true
				break
			}
		}
		if !matched {
			outNumer = append(outNumer, n)
		}
	}
	if len(outNumer) == 0 {
		outNumer = nil
	}
	if len(outDenom) == 0 {
		outDenom = nil
	}
	return outNumer, outDenom, factor
}

func unitString(numer, denom []string) string {
	switch {
	case len(numer) == 0 && len(denom) == 0:
		return ""
	case len(denom) == 0:
		return strings.Join(numer, "*")
	case len(numer) == 0:
		return strings.Join(denom, "^-1*") + "^-1"
	}
	return strings.Join(numer, "*") + "/" + strings.Join(denom, "*")
}
