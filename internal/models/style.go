// Package models defines the data model of the multi-timeframe entry checklist.
package models

import "strings"

// TradingStyle is the user-selected trading profile.
type TradingStyle string

const (
	StyleDay      TradingStyle = "day"
	StyleSwing    TradingStyle = "swing"
	StylePosition TradingStyle = "position"
)

// AllStyles returns every supported trading style in display order.
func AllStyles() []TradingStyle {
	return []TradingStyle{StyleDay, StyleSwing, StylePosition}
}

// ParseTradingStyle parses a style id, case-insensitively.
func ParseTradingStyle(s string) (TradingStyle, bool) {
	style := TradingStyle(strings.ToLower(strings.TrimSpace(s)))
	switch style {
	case StyleDay, StyleSwing, StylePosition:
		return style, true
	}
	return "", false
}

// Timeframe describes one chart timeframe of a style.
type Timeframe struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// TimeframeConfig is the timeframe set and risk profile of a trading style.
type TimeframeConfig struct {
	Higher            Timeframe `json:"higher"`
	Mid               Timeframe `json:"mid"`
	Lower             Timeframe `json:"lower"`
	HoldTime          string    `json:"holdTime"`
	TradesPerWeek     string    `json:"tradesPerWeek"`
	RiskPerTrade      float64   `json:"riskPerTrade"`
	RiskConsolidation float64   `json:"riskConsolidation"`
}

// ForStage returns the timeframe analysed at the given stage.
func (c TimeframeConfig) ForStage(stage Stage) Timeframe {
	switch stage {
	case StageHigher:
		return c.Higher
	case StageMid:
		return c.Mid
	default:
		return c.Lower
	}
}
