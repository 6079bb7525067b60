package checklist

import "trade-checklist/internal/models"

// Action is a checklist transition. The set of actions is closed; Machine.Dispatch
// handles every variant.
type Action interface {
	// Name identifies the action in logs and errors.
	Name() string
	// immediate reports whether the resulting state must be written to
	// storage at once rather than after the debounce window.
	immediate() bool
}

// PriceField names a mid timeframe price input.
type PriceField string

const (
	PriceEntry  PriceField = "entry"
	PriceStop   PriceField = "stop"
	PriceTarget PriceField = "target"
)

// PositionField names a lower timeframe position sizing input.
type PositionField string

const (
	PositionAccountSize PositionField = "accountSize"
	PositionRiskPercent PositionField = "riskPercent"
	PositionEntry       PositionField = "entry"
	PositionStop        PositionField = "stop"
)

// SelectStyle starts a fresh checklist for a trading style.
type SelectStyle struct{ Style models.TradingStyle }

// ToggleCheck flips one check and revalidates its stage.
type ToggleCheck struct {
	Stage models.Stage
	Check models.CheckID
}

// UpdatePrice sets a mid timeframe price.
type UpdatePrice struct {
	Field PriceField
	Value string
}

// UpdatePositionData sets a lower timeframe position sizing field.
type UpdatePositionData struct {
	Field PositionField
	Value string
}

// UpdatePatternType sets the mid timeframe pattern.
type UpdatePatternType struct{ Pattern models.PatternType }

// UpdateGapPercentage sets the mid timeframe gap.
type UpdateGapPercentage struct{ Value string }

// ApplyValidationResult writes an externally computed stage result into the state.
type ApplyValidationResult struct {
	Stage  models.Stage
	Result models.ValidationResult
}

// Advance moves forward to an unlocked step.
type Advance struct{ To models.Step }

// Retreat moves back to an earlier stage.
type Retreat struct{ To models.Step }

// ResetChecklist clears all checks but keeps the trading style.
type ResetChecklist struct{}

// ResetToStyleSelection clears everything including the trading style.
type ResetToStyleSelection struct{}

// RestoreState replaces the state with a previously saved snapshot.
type RestoreState struct{ State models.ChecklistState }

// ExecuteTrade records a decision to take the trade.
type ExecuteTrade struct{ Notes string }

// PassTrade records a decision to skip the trade.
type PassTrade struct{ Reason string }

func (SelectStyle) Name() string           { return "selectStyle" }
func (ToggleCheck) Name() string           { return "toggleCheck" }
func (UpdatePrice) Name() string           { return "updatePrice" }
func (UpdatePositionData) Name() string    { return "updatePositionData" }
func (UpdatePatternType) Name() string     { return "updatePatternType" }
func (UpdateGapPercentage) Name() string   { return "updateGapPercentage" }
func (ApplyValidationResult) Name() string { return "applyValidationResult" }
func (Advance) Name() string               { return "advance" }
func (Retreat) Name() string               { return "retreat" }
func (ResetChecklist) Name() string        { return "resetChecklist" }
func (ResetToStyleSelection) Name() string { return "resetToStyleSelection" }
func (RestoreState) Name() string          { return "restoreState" }
func (ExecuteTrade) Name() string          { return "executeTrade" }
func (PassTrade) Name() string             { return "passTrade" }

func (SelectStyle) immediate() bool           { return true }
func (ToggleCheck) immediate() bool           { return false }
func (UpdatePrice) immediate() bool           { return false }
func (UpdatePositionData) immediate() bool    { return false }
func (UpdatePatternType) immediate() bool     { return false }
func (UpdateGapPercentage) immediate() bool   { return false }
func (ApplyValidationResult) immediate() bool { return false }
func (Advance) immediate() bool               { return true }
func (Retreat) immediate() bool               { return true }
func (ResetChecklist) immediate() bool        { return true }
func (ResetToStyleSelection) immediate() bool { return true }
func (RestoreState) immediate() bool          { return false }
func (ExecuteTrade) immediate() bool          { return true }
func (PassTrade) immediate() bool             { return true }

// IsTerminal reports whether an action ends the checklist with a decision.
func IsTerminal(a Action) bool {
	switch a.(type) {
	case ExecuteTrade, PassTrade:
		return true
	}
	return false
}
