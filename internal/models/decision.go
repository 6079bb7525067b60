package models

import "time"

// ValidationResult is the computed outcome of one stage. Fields after
// Message are only populated by the stage they belong to.
type ValidationResult struct {
	Stage       Stage  `json:"stage"`
	IsPassed    bool   `json:"isPassed"`
	PassedCount int    `json:"passedCount"`
	TotalChecks int    `json:"totalChecks"`
	Message     string `json:"message"`

	// Higher timeframe
	ConsolidationDetected bool    `json:"consolidationDetected,omitempty"`
	PositionAdjustment    int     `json:"positionAdjustment,omitempty"`
	RecommendedRisk       float64 `json:"recommendedRisk,omitempty"`

	// Mid and lower timeframes
	MissingChecks []string `json:"missingChecks,omitempty"`

	// Lower timeframe
	ReadyToExecute bool `json:"readyToExecute,omitempty"`
}

// RecommendationStatus is the overall trade verdict label.
type RecommendationStatus string

const (
	StatusNoTrade  RecommendationStatus = "NO TRADE"
	StatusWait     RecommendationStatus = "WAIT"
	StatusNoEntry  RecommendationStatus = "NO ENTRY"
	StatusHalfSize RecommendationStatus = "HALF SIZE"
	StatusFullSize RecommendationStatus = "FULL SIZE"
)

// Tone is the display tag of a recommendation.
type Tone string

const (
	ToneError   Tone = "error"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
)

// Recommendation is the position size verdict derived from all three stages.
type Recommendation struct {
	Recommendation int                  `json:"recommendation"`
	Status         RecommendationStatus `json:"status"`
	Reason         string               `json:"reason"`
	Color          Tone                 `json:"color"`
}

// DecisionAction is the terminal choice made at the final step.
type DecisionAction string

const (
	DecisionExecute DecisionAction = "execute"
	DecisionPass    DecisionAction = "pass"
)

// FinalDecision records what the trader did with a completed checklist.
type FinalDecision struct {
	Action         DecisionAction `json:"action"`
	Recommendation Recommendation `json:"recommendation"`
	Notes          string         `json:"notes,omitempty"`
	DecidedAt      time.Time      `json:"decidedAt"`
}
