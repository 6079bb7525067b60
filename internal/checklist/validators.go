// Package checklist implements the multi-timeframe entry checklist: the
// per-stage validators, the recommendation aggregator and the state machine
// that walks a trader from the higher timeframe down to the final decision.
package checklist

import (
	"fmt"
	"strings"

	"trade-checklist/internal/models"
	"trade-checklist/internal/rules"
)

// Number of checks in each stage.
const (
	HigherCheckCount = 5
	MidCheckCount    = 6
	LowerCheckCount  = 6
)

// ValidateHigherTimeframe scores the trend-context checks. Consolidation is
// reported from the notConsolidating flag alone; since that flag is one of
// the required checks, a consolidating higher timeframe never passes.
func ValidateHigherTimeframe(checks models.HigherTimeframeChecks, timeframeName string, style models.TradingStyle) models.ValidationResult {
	passed, _ := score(checks.Flags())
	consolidating := !checks.NotConsolidating
	fullRisk, reducedRisk := rules.Risk(style)

	result := models.ValidationResult{
		Stage:                 models.StageHigher,
		IsPassed:              passed == HigherCheckCount,
		PassedCount:           passed,
		TotalChecks:           HigherCheckCount,
		ConsolidationDetected: consolidating,
		RecommendedRisk:       fullRisk,
	}
	if consolidating {
		result.RecommendedRisk = reducedRisk
	}

	if !result.IsPassed {
		result.PositionAdjustment = 0
		result.Message = fmt.Sprintf("%s trend not confirmed (%d/%d checks passed)", timeframeName, passed, HigherCheckCount)
		if consolidating {
			result.Message += fmt.Sprintf(". %s is consolidating, risk reduced to %.1f%%", timeframeName, reducedRisk)
		}
		return result
	}

	result.PositionAdjustment = 100
	result.Message = fmt.Sprintf("%s trend confirmed. Full position size allowed.", timeframeName)
	return result
}

// ValidateMidTimeframe scores the setup checks.
func ValidateMidTimeframe(checks models.MidTimeframeChecks, timeframeName, nextTimeframeName string) models.ValidationResult {
	passed, missing := score(checks.Flags())

	result := models.ValidationResult{
		Stage:         models.StageMid,
		IsPassed:      passed == MidCheckCount,
		PassedCount:   passed,
		TotalChecks:   MidCheckCount,
		MissingChecks: missing,
	}
	if result.IsPassed {
		result.Message = fmt.Sprintf("%s setup confirmed. Proceed to %s entry.", timeframeName, nextTimeframeName)
	} else {
		result.Message = fmt.Sprintf("%s setup incomplete. Missing: %s", timeframeName, strings.Join(missing, ", "))
	}
	return result
}

// ValidateLowerTimeframe scores the entry-trigger checks.
func ValidateLowerTimeframe(checks models.LowerTimeframeChecks, timeframeName string) models.ValidationResult {
	passed, missing := score(checks.Flags())

	result := models.ValidationResult{
		Stage:         models.StageLower,
		IsPassed:      passed == LowerCheckCount,
		PassedCount:   passed,
		TotalChecks:   LowerCheckCount,
		MissingChecks: missing,
	}
	result.ReadyToExecute = result.IsPassed
	if result.IsPassed {
		result.Message = fmt.Sprintf("%s entry confirmed. Ready to execute.", timeframeName)
	} else {
		result.Message = fmt.Sprintf("%s entry not ready. Missing: %s", timeframeName, strings.Join(missing, ", "))
	}
	return result
}

// score counts passed flags and lists the labels of the failed ones in order.
func score(flags []models.CheckFlag) (int, []string) {
	passed := 0
	var missing []string
	for _, f := range flags {
		if f.Passed {
			passed++
		} else {
			missing = append(missing, f.Label)
		}
	}
	return passed, missing
}
