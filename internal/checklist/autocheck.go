package checklist

import (
	"math"
	"strconv"
	"strings"
)

// Default thresholds for the computed checks.
const (
	DefaultMinRiskReward   = 2.0
	DefaultMaxPositionRisk = 2.0
)

// ShouldAutoCheckRR reports whether a risk/reward ratio meets minRatio.
// Non-numeric input is never auto-checked.
func ShouldAutoCheckRR(ratio string, minRatio float64) bool {
	v, ok := parseFinite(ratio)
	return ok && ratioMet(v, minRatio)
}

// ShouldAutoCheckPositionSize reports whether a risk percent lies in (0, maxRisk].
func ShouldAutoCheckPositionSize(riskPercent string, maxRisk float64) bool {
	v, ok := parseFinite(riskPercent)
	return ok && riskWithin(v, maxRisk)
}

func ratioMet(ratio, minRatio float64) bool {
	return ratio >= minRatio
}

func riskWithin(risk, maxRisk float64) bool {
	return risk > 0 && risk <= maxRisk
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// inputsLost reports whether a computed check can no longer stand after an
// edit that left its inputs unevaluable: either they all parsed before the
// edit, or one of them is now malformed. Empty inputs that were never
// complete leave a manual tick alone.
func inputsLost(before, after []string) bool {
	return allParse(before) || anyMalformed(after)
}

func allParse(values []string) bool {
	for _, v := range values {
		if _, ok := parseFinite(v); !ok {
			return false
		}
	}
	return true
}

func anyMalformed(values []string) bool {
	for _, v := range values {
		if _, ok := parseFinite(v); !ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
