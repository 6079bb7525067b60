package checklist

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"trade-checklist/internal/calc"
	"trade-checklist/internal/errors"
	"trade-checklist/internal/logging"
	"trade-checklist/internal/models"
	"trade-checklist/internal/rules"
)

// Options configures a Machine.
type Options struct {
	// AutoCheck ticks the computed checks (R:R, gap, position size) from
	// the price and sizing inputs.
	AutoCheck bool
	// MinRiskReward is a floor applied on top of the per-timeframe minimum.
	MinRiskReward float64
	// MaxPositionRisk caps the style's risk per trade for the position size check.
	MaxPositionRisk float64
	Limits          calc.Limits
	Now             func() time.Time
}

// DefaultOptions returns options with auto-check enabled and standard limits.
func DefaultOptions() Options {
	return Options{
		AutoCheck:       true,
		MinRiskReward:   DefaultMinRiskReward,
		MaxPositionRisk: DefaultMaxPositionRisk,
		Limits:          calc.DefaultLimits(),
		Now:             time.Now,
	}
}

// Machine owns a ChecklistState and applies transitions to it. A Machine is
// not safe for concurrent use.
type Machine struct {
	state   models.ChecklistState
	results map[models.Stage]models.ValidationResult
	opts    Options
	logger  zerolog.Logger
}

// NewMachine creates a machine at the style selection step.
func NewMachine(opts Options, logger zerolog.Logger) *Machine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{
		state:   models.NewChecklistState(),
		results: make(map[models.Stage]models.ValidationResult),
		opts:    opts,
		logger:  logging.WithComponent(logger, "checklist"),
	}
}

// State returns a copy of the current state.
func (m *Machine) State() models.ChecklistState {
	return m.state.Clone()
}

// Step returns the current step.
func (m *Machine) Step() models.Step {
	return m.state.CurrentStep
}

// Result returns the latest validation result of a stage, if the stage has
// been validated since the checklist started.
func (m *Machine) Result(stage models.Stage) (models.ValidationResult, bool) {
	r, ok := m.results[stage]
	return r, ok
}

// Recommendation returns the overall recommendation once all three stages
// have been validated.
func (m *Machine) Recommendation() (models.Recommendation, bool) {
	if !m.state.HasStyle() {
		return models.Recommendation{}, false
	}
	higher, ok1 := m.results[models.StageHigher]
	mid, ok2 := m.results[models.StageMid]
	lower, ok3 := m.results[models.StageLower]
	if !ok1 || !ok2 || !ok3 {
		return models.Recommendation{}, false
	}
	cfg := m.state.TimeframeConfig
	return CalculatePositionRecommendation(higher, mid, lower, cfg.Higher.Name, cfg.Mid.Name, cfg.Lower.Name), true
}

// Unlocked reports whether a step may be entered given the current checks.
// Pass status is recomputed from the flags rather than read from the state.
func (m *Machine) Unlocked(step models.Step) bool {
	switch step {
	case models.StepStyleSelection:
		return true
	case models.StepHigher:
		return m.state.HasStyle()
	case models.StepMid:
		return m.state.HasStyle() && m.validate(models.StageHigher).IsPassed
	case models.StepLower:
		return m.Unlocked(models.StepMid) && m.validate(models.StageMid).IsPassed
	case models.StepFinal:
		return m.Unlocked(models.StepLower) && m.validate(models.StageLower).IsPassed
	}
	return false
}

// Dispatch applies an action. A rejected or unrecognised action leaves the
// state unchanged and returns an error describing why; it never panics.
func (m *Machine) Dispatch(a Action) error {
	if a == nil {
		return m.unknown("nil", "no action")
	}
	from := m.state.CurrentStep

	var err error
	switch act := a.(type) {
	case SelectStyle:
		err = m.selectStyle(act.Style)
	case ToggleCheck:
		err = m.toggleCheck(act.Stage, act.Check)
	case UpdatePrice:
		err = m.updatePrice(act.Field, act.Value)
	case UpdatePositionData:
		err = m.updatePositionData(act.Field, act.Value)
	case UpdatePatternType:
		err = m.updatePatternType(act.Pattern)
	case UpdateGapPercentage:
		err = m.updateGapPercentage(act.Value)
	case ApplyValidationResult:
		err = m.applyExternal(act.Stage, act.Result)
	case Advance:
		err = m.advance(act.To)
	case Retreat:
		err = m.retreat(act.To)
	case ResetChecklist:
		err = m.resetChecklist()
	case ResetToStyleSelection:
		m.resetToStyleSelection()
	case RestoreState:
		m.restore(act.State)
	case ExecuteTrade:
		err = m.decide(models.DecisionExecute, act.Notes)
	case PassTrade:
		err = m.decide(models.DecisionPass, act.Reason)
	default:
		return m.unknown(a.Name(), fmt.Sprintf("unhandled action %T", a))
	}

	if err != nil {
		m.logger.Debug().Err(err).Str("action", a.Name()).Msg("Transition rejected")
		return err
	}
	logging.LogTransition(m.logger, a.Name(), string(from), string(m.state.CurrentStep))
	return nil
}

func (m *Machine) unknown(action, detail string) error {
	m.logger.Warn().Str("action", action).Str("step", string(m.state.CurrentStep)).Msg(detail)
	return errors.NewTransitionError(action, string(m.state.CurrentStep), errors.ErrUnknownTransition)
}

func (m *Machine) reject(action string, err error) error {
	return errors.NewTransitionError(action, string(m.state.CurrentStep), err)
}

func (m *Machine) selectStyle(style models.TradingStyle) error {
	cfg, err := rules.ConfigFor(style)
	if err != nil {
		return m.reject("selectStyle", errors.ErrUnknownStyle)
	}
	m.state = models.NewChecklistState()
	m.state.TradingStyle = style
	m.state.TimeframeConfig = &cfg
	m.state.CurrentStep = models.StepHigher
	m.results = make(map[models.Stage]models.ValidationResult)
	return nil
}

func (m *Machine) toggleCheck(stage models.Stage, id models.CheckID) error {
	if !m.state.HasStyle() {
		return m.reject("toggleCheck", errors.ErrNoStyle)
	}
	flag := m.state.Check(stage, id)
	if flag == nil {
		return m.unknown("toggleCheck", fmt.Sprintf("no check %q in stage %q", id, stage))
	}
	*flag = !*flag
	m.revalidate(stage)
	return nil
}

func (m *Machine) updatePrice(field PriceField, value string) error {
	if !m.state.HasStyle() {
		return m.reject("updatePrice", errors.ErrNoStyle)
	}
	before := m.state.MidTF.Prices
	prices := &m.state.MidTF.Prices
	switch field {
	case PriceEntry:
		prices.Entry = value
	case PriceStop:
		prices.Stop = value
	case PriceTarget:
		prices.Target = value
	default:
		return m.unknown("updatePrice", fmt.Sprintf("no price field %q", field))
	}
	m.autoCheckMidRiskReward(before)
	m.revalidate(models.StageMid)
	// The lower R:R check is measured against the mid target.
	if field == PriceTarget && m.autoCheckLowerRiskReward(m.state.LowerTF.PositionData, before.Target) {
		m.revalidate(models.StageLower)
	}
	return nil
}

func (m *Machine) updatePositionData(field PositionField, value string) error {
	if !m.state.HasStyle() {
		return m.reject("updatePositionData", errors.ErrNoStyle)
	}
	before := m.state.LowerTF.PositionData
	data := &m.state.LowerTF.PositionData
	switch field {
	case PositionAccountSize:
		data.AccountSize = value
	case PositionRiskPercent:
		data.RiskPercent = value
	case PositionEntry:
		data.Entry = value
	case PositionStop:
		data.Stop = value
	default:
		return m.unknown("updatePositionData", fmt.Sprintf("no position field %q", field))
	}
	m.autoCheckPositionSize(before)
	m.autoCheckLowerRiskReward(before, m.state.MidTF.Prices.Target)
	m.revalidate(models.StageLower)
	return nil
}

func (m *Machine) updatePatternType(pattern models.PatternType) error {
	if !m.state.HasStyle() {
		return m.reject("updatePatternType", errors.ErrNoStyle)
	}
	switch pattern {
	case models.PatternBreakout, models.PatternPullback:
		m.state.MidTF.PatternType = pattern
		return nil
	}
	return m.unknown("updatePatternType", fmt.Sprintf("no pattern %q", pattern))
}

func (m *Machine) updateGapPercentage(value string) error {
	if !m.state.HasStyle() {
		return m.reject("updateGapPercentage", errors.ErrNoStyle)
	}
	before := m.state.MidTF.GapPercentage
	m.state.MidTF.GapPercentage = value
	if m.opts.AutoCheck {
		if gap, ok := parseFinite(value); ok {
			tolerance := rules.RulesFor(m.state.TimeframeConfig.Mid.Code).GapTolerance
			m.state.MidTF.GapAcceptable = math.Abs(gap) <= tolerance
		} else if inputsLost([]string{before}, []string{value}) {
			m.state.MidTF.GapAcceptable = false
		}
	}
	m.revalidate(models.StageMid)
	return nil
}

func (m *Machine) applyExternal(stage models.Stage, result models.ValidationResult) error {
	if !m.state.HasStyle() {
		return m.reject("applyValidationResult", errors.ErrNoStyle)
	}
	if !stage.Valid() {
		return m.unknown("applyValidationResult", fmt.Sprintf("no stage %q", stage))
	}
	result.Stage = stage
	m.apply(stage, result)
	return nil
}

func (m *Machine) advance(to models.Step) error {
	if !m.state.HasStyle() {
		return m.reject("advance", errors.ErrNoStyle)
	}
	if to.Order() <= m.state.CurrentStep.Order() {
		return m.reject("advance", fmt.Errorf("cannot advance from %s to %s", m.state.CurrentStep, to))
	}
	if !m.Unlocked(to) {
		return m.reject("advance", fmt.Errorf("%w: %s", errors.ErrStageLocked, to))
	}
	m.state.CurrentStep = to
	return nil
}

func (m *Machine) retreat(to models.Step) error {
	if !m.state.HasStyle() {
		return m.reject("retreat", errors.ErrNoStyle)
	}
	if to.Order() < models.StepHigher.Order() || to.Order() >= m.state.CurrentStep.Order() {
		return m.reject("retreat", fmt.Errorf("cannot retreat from %s to %s", m.state.CurrentStep, to))
	}
	m.state.CurrentStep = to
	return nil
}

func (m *Machine) resetChecklist() error {
	if !m.state.HasStyle() {
		return m.reject("resetChecklist", errors.ErrNoStyle)
	}
	m.state.ResetChecks()
	m.state.CurrentStep = models.StepHigher
	m.results = make(map[models.Stage]models.ValidationResult)
	return nil
}

func (m *Machine) resetToStyleSelection() {
	m.state = models.NewChecklistState()
	m.results = make(map[models.Stage]models.ValidationResult)
}

// restore installs a snapshot verbatim. A missing timeframe config is
// derived from the style, and a state without a usable style goes back to
// style selection. Stage results are rebuilt for every stage the snapshot
// had reached so the recommendation is available again.
func (m *Machine) restore(state models.ChecklistState) {
	m.state = state.Clone()
	m.results = make(map[models.Stage]models.ValidationResult)
	if m.state.TimeframeConfig == nil && m.state.TradingStyle != "" {
		if cfg, err := rules.ConfigFor(m.state.TradingStyle); err == nil {
			m.state.TimeframeConfig = &cfg
		}
	}
	if !m.state.HasStyle() {
		m.state.CurrentStep = models.StepStyleSelection
		return
	}
	for _, stage := range models.AllStages() {
		if stage.Step().Order() <= m.state.CurrentStep.Order() {
			m.results[stage] = m.validate(stage)
		}
	}
}

func (m *Machine) decide(action models.DecisionAction, notes string) error {
	name := "executeTrade"
	if action == models.DecisionPass {
		name = "passTrade"
	}
	if m.state.CurrentStep != models.StepFinal {
		return m.reject(name, fmt.Errorf("decision requires the final step"))
	}
	rec, ok := m.Recommendation()
	if !ok {
		return m.reject(name, fmt.Errorf("%w: not all stages validated", errors.ErrStageLocked))
	}
	if action == models.DecisionExecute && rec.Recommendation == 0 {
		return m.reject(name, fmt.Errorf("%w: %s", errors.ErrStageLocked, rec.Reason))
	}
	m.state.FinalDecision = &models.FinalDecision{
		Action:         action,
		Recommendation: rec,
		Notes:          notes,
		DecidedAt:      m.opts.Now().UTC(),
	}
	return nil
}

// validate runs the stage validator against the current flags.
func (m *Machine) validate(stage models.Stage) models.ValidationResult {
	cfg := m.state.TimeframeConfig
	switch stage {
	case models.StageHigher:
		return ValidateHigherTimeframe(m.state.HigherTF, cfg.Higher.Name, m.state.TradingStyle)
	case models.StageMid:
		return ValidateMidTimeframe(m.state.MidTF, cfg.Mid.Name, cfg.Lower.Name)
	default:
		return ValidateLowerTimeframe(m.state.LowerTF, cfg.Lower.Name)
	}
}

func (m *Machine) revalidate(stage models.Stage) {
	m.apply(stage, m.validate(stage))
}

// apply merges a stage result into the state.
func (m *Machine) apply(stage models.Stage, r models.ValidationResult) {
	m.results[stage] = r
	switch stage {
	case models.StageHigher:
		m.state.HigherTF.IsPassed = r.IsPassed
		m.state.HigherTF.IsComplete = r.IsPassed
		m.state.ConsolidationDetected = r.ConsolidationDetected
		m.state.PositionSizeRecommendation = r.PositionAdjustment
	case models.StageMid:
		m.state.MidTF.IsPassed = r.IsPassed
		m.state.MidTF.IsComplete = r.IsPassed
	case models.StageLower:
		m.state.LowerTF.IsPassed = r.IsPassed
		m.state.LowerTF.IsComplete = r.IsPassed
	}
}

// autoCheckMidRiskReward ticks riskReward2to1 from the mid prices once all
// three parse. Prices that do not form a trade, or that stop parsing, untick it.
func (m *Machine) autoCheckMidRiskReward(before models.Prices) {
	if !m.opts.AutoCheck {
		return
	}
	p := m.state.MidTF.Prices
	entry, ok1 := parseFinite(p.Entry)
	stop, ok2 := parseFinite(p.Stop)
	target, ok3 := parseFinite(p.Target)
	if !ok1 || !ok2 || !ok3 {
		if inputsLost([]string{before.Entry, before.Stop, before.Target}, []string{p.Entry, p.Stop, p.Target}) {
			m.state.MidTF.RiskReward2to1 = false
		}
		return
	}
	rr, err := m.opts.Limits.RiskReward(calc.RiskRewardInput{EntryPrice: entry, StopLoss: stop, TargetPrice: target})
	if err != nil {
		m.state.MidTF.RiskReward2to1 = false
		return
	}
	m.state.MidTF.RiskReward2to1 = ratioMet(rr.RRRatio, m.minRiskReward(m.state.TimeframeConfig.Mid.Code))
}

// autoCheckLowerRiskReward re-measures R:R from the refined lower entry and
// stop to the mid target. before and beforeTarget are the inputs prior to the
// edit. It reports whether the check was touched.
func (m *Machine) autoCheckLowerRiskReward(before models.PositionData, beforeTarget string) bool {
	if !m.opts.AutoCheck {
		return false
	}
	d := m.state.LowerTF.PositionData
	target := m.state.MidTF.Prices.Target
	entry, ok1 := parseFinite(d.Entry)
	stop, ok2 := parseFinite(d.Stop)
	targetPrice, ok3 := parseFinite(target)
	if !ok1 || !ok2 || !ok3 {
		if inputsLost([]string{before.Entry, before.Stop, beforeTarget}, []string{d.Entry, d.Stop, target}) {
			m.state.LowerTF.RiskRewardValid = false
			return true
		}
		return false
	}
	rr, err := m.opts.Limits.RiskReward(calc.RiskRewardInput{EntryPrice: entry, StopLoss: stop, TargetPrice: targetPrice})
	if err != nil {
		m.state.LowerTF.RiskRewardValid = false
		return true
	}
	m.state.LowerTF.RiskRewardValid = ratioMet(rr.RRRatio, m.minRiskReward(m.state.TimeframeConfig.Lower.Code))
	return true
}

// autoCheckPositionSize ticks positionSizeValid when the risk percent is
// within the style limit and, if the other inputs are present, the position
// can actually be sized. A risk percent that stops parsing unticks it.
func (m *Machine) autoCheckPositionSize(before models.PositionData) {
	if !m.opts.AutoCheck {
		return
	}
	d := m.state.LowerTF.PositionData
	risk, ok := parseFinite(d.RiskPercent)
	if !ok {
		if inputsLost([]string{before.RiskPercent}, []string{d.RiskPercent}) {
			m.state.LowerTF.PositionSizeValid = false
		}
		return
	}
	valid := riskWithin(risk, m.maxPositionRisk())

	account, ok1 := parseFinite(d.AccountSize)
	entry, ok2 := parseFinite(d.Entry)
	stop, ok3 := parseFinite(d.Stop)
	if valid && ok1 && ok2 && ok3 {
		_, err := m.opts.Limits.PositionSize(calc.PositionInput{AccountSize: account, RiskPercent: risk, EntryPrice: entry, StopLoss: stop})
		valid = err == nil
	}
	m.state.LowerTF.PositionSizeValid = valid
}

func (m *Machine) minRiskReward(code string) float64 {
	return math.Max(rules.RulesFor(code).MinRiskReward, m.opts.MinRiskReward)
}

func (m *Machine) maxPositionRisk() float64 {
	limit := m.state.TimeframeConfig.RiskPerTrade
	if m.opts.MaxPositionRisk > 0 && m.opts.MaxPositionRisk < limit {
		limit = m.opts.MaxPositionRisk
	}
	return limit
}
