// Package rules holds the static timeframe tables for each trading style.
package rules

import (
	"fmt"

	"trade-checklist/internal/models"
)

// TimeframeRules are the per-timeframe thresholds used by the checks.
type TimeframeRules struct {
	Code                string
	ConsolidationPeriod int     // bars of sideways action that count as consolidation
	GapTolerance        float64 // max acceptable gap, percent
	VolumeMultiplier    float64 // breakout volume vs average
	MinRiskReward       float64
}

var styleConfigs = map[models.TradingStyle]models.TimeframeConfig{
	models.StyleDay: {
		Higher:            models.Timeframe{Name: "1 Hour", Code: "1h"},
		Mid:               models.Timeframe{Name: "15 Minute", Code: "15m"},
		Lower:             models.Timeframe{Name: "5 Minute", Code: "5m"},
		HoldTime:          "Minutes to hours",
		TradesPerWeek:     "5-15",
		RiskPerTrade:      1.0,
		RiskConsolidation: 0.5,
	},
	models.StyleSwing: {
		Higher:            models.Timeframe{Name: "Weekly", Code: "1w"},
		Mid:               models.Timeframe{Name: "Daily", Code: "1d"},
		Lower:             models.Timeframe{Name: "4 Hour", Code: "4h"},
		HoldTime:          "2-10 days",
		TradesPerWeek:     "2-5",
		RiskPerTrade:      2.0,
		RiskConsolidation: 1.0,
	},
	models.StylePosition: {
		Higher:            models.Timeframe{Name: "Monthly", Code: "1M"},
		Mid:               models.Timeframe{Name: "Weekly", Code: "1w"},
		Lower:             models.Timeframe{Name: "Daily", Code: "1d"},
		HoldTime:          "Weeks to months",
		TradesPerWeek:     "0-2",
		RiskPerTrade:      2.0,
		RiskConsolidation: 1.0,
	},
}

var timeframeRules = map[string]TimeframeRules{
	"5m":  {Code: "5m", ConsolidationPeriod: 12, GapTolerance: 0.5, VolumeMultiplier: 1.5, MinRiskReward: 2.0},
	"15m": {Code: "15m", ConsolidationPeriod: 8, GapTolerance: 1.0, VolumeMultiplier: 1.5, MinRiskReward: 2.0},
	"1h":  {Code: "1h", ConsolidationPeriod: 10, GapTolerance: 1.5, VolumeMultiplier: 1.3, MinRiskReward: 2.0},
	"4h":  {Code: "4h", ConsolidationPeriod: 6, GapTolerance: 2.0, VolumeMultiplier: 1.3, MinRiskReward: 2.0},
	"1d":  {Code: "1d", ConsolidationPeriod: 10, GapTolerance: 3.0, VolumeMultiplier: 1.5, MinRiskReward: 2.0},
	"1w":  {Code: "1w", ConsolidationPeriod: 6, GapTolerance: 5.0, VolumeMultiplier: 1.2, MinRiskReward: 2.5},
	"1M":  {Code: "1M", ConsolidationPeriod: 4, GapTolerance: 8.0, VolumeMultiplier: 1.2, MinRiskReward: 3.0},
}

// DefaultRules apply to a timeframe code missing from the table.
var DefaultRules = TimeframeRules{ConsolidationPeriod: 10, GapTolerance: 2.0, VolumeMultiplier: 1.5, MinRiskReward: 2.0}

// ConfigFor returns the timeframe configuration of a style.
func ConfigFor(style models.TradingStyle) (models.TimeframeConfig, error) {
	cfg, ok := styleConfigs[style]
	if !ok {
		return models.TimeframeConfig{}, fmt.Errorf("unknown trading style %q", style)
	}
	return cfg, nil
}

// MustConfigFor is ConfigFor for styles known to be valid.
func MustConfigFor(style models.TradingStyle) models.TimeframeConfig {
	cfg, err := ConfigFor(style)
	if err != nil {
		panic(err)
	}
	return cfg
}

// RulesFor returns the thresholds of a timeframe code, falling back to DefaultRules.
func RulesFor(code string) TimeframeRules {
	if r, ok := timeframeRules[code]; ok {
		return r
	}
	r := DefaultRules
	r.Code = code
	return r
}

// Risk returns the baseline and consolidation-reduced risk percentages of a style.
// Unknown styles report zero risk.
func Risk(style models.TradingStyle) (full, reduced float64) {
	cfg, ok := styleConfigs[style]
	if !ok {
		return 0, 0
	}
	return cfg.RiskPerTrade, cfg.RiskConsolidation
}
