package checklist

import (
	"fmt"

	"trade-checklist/internal/models"
)

// CalculatePositionRecommendation combines the three stage results. Stages
// are consulted strictly in order; the first failing stage decides.
func CalculatePositionRecommendation(higher, mid, lower models.ValidationResult, higherName, midName, lowerName string) models.Recommendation {
	switch {
	case !higher.IsPassed:
		return models.Recommendation{
			Recommendation: 0,
			Status:         models.StatusNoTrade,
			Reason:         fmt.Sprintf("%s trend not confirmed", higherName),
			Color:          models.ToneError,
		}
	case !mid.IsPassed:
		return models.Recommendation{
			Recommendation: 0,
			Status:         models.StatusWait,
			Reason:         fmt.Sprintf("%s setup not ready", midName),
			Color:          models.ToneWarning,
		}
	case !lower.IsPassed:
		return models.Recommendation{
			Recommendation: 0,
			Status:         models.StatusNoEntry,
			Reason:         fmt.Sprintf("%s entry not confirmed", lowerName),
			Color:          models.ToneWarning,
		}
	case higher.ConsolidationDetected:
		return models.Recommendation{
			Recommendation: 50,
			Status:         models.StatusHalfSize,
			Reason:         fmt.Sprintf("%s is consolidating, trade half size", higherName),
			Color:          models.ToneWarning,
		}
	default:
		return models.Recommendation{
			Recommendation: 100,
			Status:         models.StatusFullSize,
			Reason:         "All timeframes aligned",
			Color:          models.ToneSuccess,
		}
	}
}
