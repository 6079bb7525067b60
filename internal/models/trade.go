package models

import "time"

// TimeframeCodes lists the timeframe codes used by a trade.
type TimeframeCodes struct {
	Higher string `json:"higher"`
	Mid    string `json:"mid"`
	Lower  string `json:"lower"`
}

// TradeRecord is the exported summary of a checklist.
type TradeRecord struct {
	ExportDate       string                `json:"exportDate"`
	TradingStyle     TradingStyle          `json:"tradingStyle"`
	Timeframes       TimeframeCodes        `json:"timeframes"`
	RiskPercent      float64               `json:"riskPercent"`
	HoldTimeExpected string                `json:"holdTimeExpected"`
	HigherTFChecks   HigherTimeframeChecks `json:"higherTFChecks"`
	MidTFChecks      MidTimeframeChecks    `json:"midTFChecks"`
	LowerTFChecks    LowerTimeframeChecks  `json:"lowerTFChecks"`
	PositionSize     int                   `json:"positionSize"`
	FinalDecision    *FinalDecision        `json:"finalDecision"`
	Version          string                `json:"version"`
}

// JournalEntry is a persisted final decision.
type JournalEntry struct {
	ID           string               `json:"id"`
	CreatedAt    time.Time            `json:"createdAt"`
	Style        TradingStyle         `json:"style"`
	Action       DecisionAction       `json:"action"`
	Status       RecommendationStatus `json:"status"`
	PositionSize int                  `json:"positionSize"`
	Reason       string               `json:"reason"`
	Notes        string               `json:"notes,omitempty"`
	Timeframes   TimeframeCodes       `json:"timeframes"`
	Snapshot     ChecklistState       `json:"snapshot"`
}
