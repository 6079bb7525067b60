package models

// Step is a position in the checklist workflow.
type Step string

const (
	StepStyleSelection Step = "styleSelection"
	StepHigher         Step = "higher"
	StepMid            Step = "mid"
	StepLower          Step = "lower"
	StepFinal          Step = "final"
)

// Order returns the position of the step in the workflow, or -1 if unknown.
func (s Step) Order() int {
	switch s {
	case StepStyleSelection:
		return 0
	case StepHigher:
		return 1
	case StepMid:
		return 2
	case StepLower:
		return 3
	case StepFinal:
		return 4
	}
	return -1
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s.Order() >= 0
}

// Stage is one of the three timeframe analyses.
type Stage string

const (
	StageHigher Stage = "higher"
	StageMid    Stage = "mid"
	StageLower  Stage = "lower"
)

// AllStages returns the stages in workflow order.
func AllStages() []Stage {
	return []Stage{StageHigher, StageMid, StageLower}
}

// Step returns the workflow step at which the stage is analysed.
func (s Stage) Step() Step {
	return Step(s)
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageHigher, StageMid, StageLower:
		return true
	}
	return false
}

// CheckID identifies a single boolean criterion within a stage.
type CheckID string

const (
	CheckHigherHighsLows     CheckID = "higherHighsLows"
	CheckAbove50EMA          CheckID = "above50EMA"
	CheckEMAAlignment        CheckID = "emaAlignment"
	CheckNotConsolidating    CheckID = "notConsolidating"
	CheckClearFromResistance CheckID = "clearFromResistance"

	CheckBreakoutOrPullback CheckID = "breakoutOrPullback"
	CheckAboveEMA           CheckID = "aboveEMA"
	CheckVolumeConfirmation CheckID = "volumeConfirmation"
	CheckGapAcceptable      CheckID = "gapAcceptable"
	CheckCleanHigherLow     CheckID = "cleanHigherLow"
	CheckRiskReward2to1     CheckID = "riskReward2to1"

	CheckStopBelowStructure   CheckID = "stopBelowStructure"
	CheckStopDistanceOK       CheckID = "stopDistanceOk"
	CheckNotAfterExtendedMove CheckID = "notAfterExtendedMove"
	CheckRetestOrPullback     CheckID = "retestOrPullback"
	CheckRiskRewardValid      CheckID = "riskRewardValid"
	CheckPositionSizeValid    CheckID = "positionSizeValid"
)

// CheckFlag is a labelled check value, listed in display order.
type CheckFlag struct {
	ID     CheckID
	Label  string
	Passed bool
}

// HigherTimeframeChecks holds the trend-context checks.
type HigherTimeframeChecks struct {
	HigherHighsLows     bool `json:"higherHighsLows"`
	Above50EMA          bool `json:"above50EMA"`
	EMAAlignment        bool `json:"emaAlignment"`
	NotConsolidating    bool `json:"notConsolidating"`
	ClearFromResistance bool `json:"clearFromResistance"`
	IsPassed            bool `json:"isPassed"`
	IsComplete          bool `json:"isComplete"`
}

// Flags returns the five checks in display order.
func (c *HigherTimeframeChecks) Flags() []CheckFlag {
	return []CheckFlag{
		{CheckHigherHighsLows, "Higher highs and higher lows", c.HigherHighsLows},
		{CheckAbove50EMA, "Price above 50 EMA", c.Above50EMA},
		{CheckEMAAlignment, "EMAs aligned", c.EMAAlignment},
		{CheckNotConsolidating, "Not consolidating", c.NotConsolidating},
		{CheckClearFromResistance, "Clear from resistance", c.ClearFromResistance},
	}
}

func (c *HigherTimeframeChecks) flag(id CheckID) *bool {
	switch id {
	case CheckHigherHighsLows:
		return &c.HigherHighsLows
	case CheckAbove50EMA:
		return &c.Above50EMA
	case CheckEMAAlignment:
		return &c.EMAAlignment
	case CheckNotConsolidating:
		return &c.NotConsolidating
	case CheckClearFromResistance:
		return &c.ClearFromResistance
	}
	return nil
}

// PatternType is the mid-timeframe setup pattern.
type PatternType string

const (
	PatternBreakout PatternType = "breakout"
	PatternPullback PatternType = "pullback"
)

// Prices holds the free-text trade plan prices entered on the mid timeframe.
type Prices struct {
	Entry  string `json:"entry"`
	Stop   string `json:"stop"`
	Target string `json:"target"`
}

// MidTimeframeChecks holds the setup checks.
type MidTimeframeChecks struct {
	BreakoutOrPullback bool        `json:"breakoutOrPullback"`
	AboveEMA           bool        `json:"aboveEMA"`
	VolumeConfirmation bool        `json:"volumeConfirmation"`
	GapAcceptable      bool        `json:"gapAcceptable"`
	CleanHigherLow     bool        `json:"cleanHigherLow"`
	RiskReward2to1     bool        `json:"riskReward2to1"`
	PatternType        PatternType `json:"patternType"`
	GapPercentage      string      `json:"gapPercentage"`
	Prices             Prices      `json:"prices"`
	IsPassed           bool        `json:"isPassed"`
	IsComplete         bool        `json:"isComplete"`
}

// Flags returns the six checks in display order.
func (c *MidTimeframeChecks) Flags() []CheckFlag {
	return []CheckFlag{
		{CheckBreakoutOrPullback, "Breakout or pullback pattern", c.BreakoutOrPullback},
		{CheckAboveEMA, "Price above EMA", c.AboveEMA},
		{CheckVolumeConfirmation, "Volume confirmation", c.VolumeConfirmation},
		{CheckGapAcceptable, "Gap within tolerance", c.GapAcceptable},
		{CheckCleanHigherLow, "Clean higher low", c.CleanHigherLow},
		{CheckRiskReward2to1, "Risk:Reward at least 2:1", c.RiskReward2to1},
	}
}

func (c *MidTimeframeChecks) flag(id CheckID) *bool {
	switch id {
	case CheckBreakoutOrPullback:
		return &c.BreakoutOrPullback
	case CheckAboveEMA:
		return &c.AboveEMA
	case CheckVolumeConfirmation:
		return &c.VolumeConfirmation
	case CheckGapAcceptable:
		return &c.GapAcceptable
	case CheckCleanHigherLow:
		return &c.CleanHigherLow
	case CheckRiskReward2to1:
		return &c.RiskReward2to1
	}
	return nil
}

// PositionData holds the free-text sizing inputs entered on the lower timeframe.
type PositionData struct {
	AccountSize string `json:"accountSize"`
	RiskPercent string `json:"riskPercent"`
	Entry       string `json:"entry"`
	Stop        string `json:"stop"`
}

// LowerTimeframeChecks holds the entry-trigger checks.
type LowerTimeframeChecks struct {
	StopBelowStructure   bool         `json:"stopBelowStructure"`
	StopDistanceOK       bool         `json:"stopDistanceOk"`
	NotAfterExtendedMove bool         `json:"notAfterExtendedMove"`
	RetestOrPullback     bool         `json:"retestOrPullback"`
	RiskRewardValid      bool         `json:"riskRewardValid"`
	PositionSizeValid    bool         `json:"positionSizeValid"`
	PositionData         PositionData `json:"positionData"`
	IsPassed             bool         `json:"isPassed"`
	IsComplete           bool         `json:"isComplete"`
}

// Flags returns the six checks in display order.
func (c *LowerTimeframeChecks) Flags() []CheckFlag {
	return []CheckFlag{
		{CheckStopBelowStructure, "Stop below structure", c.StopBelowStructure},
		{CheckStopDistanceOK, "Stop distance acceptable", c.StopDistanceOK},
		{CheckNotAfterExtendedMove, "Not chasing an extended move", c.NotAfterExtendedMove},
		{CheckRetestOrPullback, "Retest or pullback entry", c.RetestOrPullback},
		{CheckRiskRewardValid, "Risk:Reward still valid", c.RiskRewardValid},
		{CheckPositionSizeValid, "Position size within risk limit", c.PositionSizeValid},
	}
}

func (c *LowerTimeframeChecks) flag(id CheckID) *bool {
	switch id {
	case CheckStopBelowStructure:
		return &c.StopBelowStructure
	case CheckStopDistanceOK:
		return &c.StopDistanceOK
	case CheckNotAfterExtendedMove:
		return &c.NotAfterExtendedMove
	case CheckRetestOrPullback:
		return &c.RetestOrPullback
	case CheckRiskRewardValid:
		return &c.RiskRewardValid
	case CheckPositionSizeValid:
		return &c.PositionSizeValid
	}
	return nil
}

// ChecklistState is the aggregate root of a checklist session.
type ChecklistState struct {
	CurrentStep                Step                  `json:"currentStep"`
	TradingStyle               TradingStyle          `json:"tradingStyle"`
	TimeframeConfig            *TimeframeConfig      `json:"timeframeConfig"`
	HigherTF                   HigherTimeframeChecks `json:"higherTF"`
	MidTF                      MidTimeframeChecks    `json:"midTF"`
	LowerTF                    LowerTimeframeChecks  `json:"lowerTF"`
	ConsolidationDetected      bool                  `json:"consolidationDetected"`
	PositionSizeRecommendation int                   `json:"positionSizeRecommendation"`
	FinalDecision              *FinalDecision        `json:"finalDecision"`
}

// NewChecklistState returns the state shown before a style is chosen.
func NewChecklistState() ChecklistState {
	return ChecklistState{
		CurrentStep: StepStyleSelection,
		MidTF:       MidTimeframeChecks{PatternType: PatternBreakout},
	}
}

// HasStyle reports whether a trading style has been selected.
func (s *ChecklistState) HasStyle() bool {
	return s.TradingStyle != "" && s.TimeframeConfig != nil
}

// ResetChecks clears all three stage records and derived fields.
func (s *ChecklistState) ResetChecks() {
	s.HigherTF = HigherTimeframeChecks{}
	s.MidTF = MidTimeframeChecks{PatternType: PatternBreakout}
	s.LowerTF = LowerTimeframeChecks{}
	s.ConsolidationDetected = false
	s.PositionSizeRecommendation = 0
	s.FinalDecision = nil
}

// Flags returns the labelled checks of a stage.
func (s *ChecklistState) Flags(stage Stage) []CheckFlag {
	switch stage {
	case StageHigher:
		return s.HigherTF.Flags()
	case StageMid:
		return s.MidTF.Flags()
	case StageLower:
		return s.LowerTF.Flags()
	}
	return nil
}

// Check returns a pointer to the named check of a stage, or nil if the stage
// has no such check.
func (s *ChecklistState) Check(stage Stage, id CheckID) *bool {
	switch stage {
	case StageHigher:
		return s.HigherTF.flag(id)
	case StageMid:
		return s.MidTF.flag(id)
	case StageLower:
		return s.LowerTF.flag(id)
	}
	return nil
}

// StagePassed returns the last applied pass flag of a stage.
func (s *ChecklistState) StagePassed(stage Stage) bool {
	switch stage {
	case StageHigher:
		return s.HigherTF.IsPassed
	case StageMid:
		return s.MidTF.IsPassed
	case StageLower:
		return s.LowerTF.IsPassed
	}
	return false
}

// Clone returns a deep copy of the state.
func (s ChecklistState) Clone() ChecklistState {
	out := s
	if s.TimeframeConfig != nil {
		cfg := *s.TimeframeConfig
		out.TimeframeConfig = &cfg
	}
	if s.FinalDecision != nil {
		fd := *s.FinalDecision
		out.FinalDecision = &fd
	}
	return out
}
