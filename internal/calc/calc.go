// Package calc provides the position size and risk/reward calculators.
package calc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"trade-checklist/internal/errors"
)

// Field names reported in calculator errors.
const (
	FieldAccountSize = "accountSize"
	FieldRiskPercent = "riskPercent"
	FieldEntryPrice  = "entryPrice"
	FieldStopLoss    = "stopLoss"
	FieldTargetPrice = "targetPrice"
)

// Limits are the input ceilings enforced by the calculators.
type Limits struct {
	MaxPrice       float64
	MaxAccountSize float64
	MaxRiskPercent float64
}

// DefaultLimits returns the standard calculator ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxPrice:       1_000_000,
		MaxAccountSize: 100_000_000,
		MaxRiskPercent: 100,
	}
}

// PositionInput holds the position size calculator inputs.
type PositionInput struct {
	AccountSize float64
	RiskPercent float64
	EntryPrice  float64
	StopLoss    float64
}

// PositionSize is the result of a position size calculation. Money values
// are rounded to cents and encoded in JSON as fixed two-decimal strings.
type PositionSize struct {
	Shares           int
	PositionValue    float64
	RiskAmount       float64
	RiskPerShare     float64
	PercentOfAccount float64
}

// RiskRewardInput holds the risk/reward calculator inputs.
type RiskRewardInput struct {
	EntryPrice  float64
	StopLoss    float64
	TargetPrice float64
}

// PositionType is the trade direction implied by the stop placement.
type PositionType string

const (
	PositionLong  PositionType = "Long"
	PositionShort PositionType = "Short"
)

// RiskReward is the result of a risk/reward calculation. Amounts and the
// ratio are encoded in JSON as fixed two-decimal strings.
type RiskReward struct {
	RiskPerShare   float64
	RewardPerShare float64
	RRRatio        float64
	PositionType   PositionType
	IsValidTrade   bool
}

// MarshalJSON encodes the result in its wire form.
func (p PositionSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Shares           int    `json:"shares"`
		PositionValue    string `json:"positionValue"`
		RiskAmount       string `json:"riskAmount"`
		RiskPerShare     string `json:"riskPerShare"`
		PercentOfAccount string `json:"percentOfAccount"`
	}{
		Shares:           p.Shares,
		PositionValue:    fixed2(p.PositionValue),
		RiskAmount:       fixed2(p.RiskAmount),
		RiskPerShare:     fixed2(p.RiskPerShare),
		PercentOfAccount: fixed2(p.PercentOfAccount),
	})
}

// MarshalJSON encodes the result in its wire form.
func (r RiskReward) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		RiskPerShare   string       `json:"riskPerShare"`
		RewardPerShare string       `json:"rewardPerShare"`
		RRRatio        string       `json:"rrRatio"`
		PositionType   PositionType `json:"positionType"`
		IsValidTrade   bool         `json:"isValidTrade"`
	}{
		RiskPerShare:   fixed2(r.RiskPerShare),
		RewardPerShare: fixed2(r.RewardPerShare),
		RRRatio:        fixed2(r.RRRatio),
		PositionType:   r.PositionType,
		IsValidTrade:   r.IsValidTrade,
	})
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// CalculatePositionSize sizes a long position with DefaultLimits.
func CalculatePositionSize(in PositionInput) (*PositionSize, error) {
	return DefaultLimits().PositionSize(in)
}

// CalculateRiskReward computes the risk/reward ratio with DefaultLimits.
func CalculateRiskReward(in RiskRewardInput) (*RiskReward, error) {
	return DefaultLimits().RiskReward(in)
}

// PositionSize sizes a long position so that a stop-out loses RiskPercent of
// the account. Errors are *errors.InputError for a bad single field and
// *errors.RelationshipError for inconsistent fields.
func (l Limits) PositionSize(in PositionInput) (result *PositionSize, err error) {
	defer recoverCalculation(&result, &err)

	if err := checkValue(FieldAccountSize, in.AccountSize, l.MaxAccountSize, "Account size"); err != nil {
		return nil, err
	}
	if err := checkValue(FieldRiskPercent, in.RiskPercent, l.MaxRiskPercent, "Risk percent"); err != nil {
		return nil, err
	}
	if err := checkValue(FieldEntryPrice, in.EntryPrice, l.MaxPrice, "Entry price"); err != nil {
		return nil, err
	}
	if err := checkValue(FieldStopLoss, in.StopLoss, l.MaxPrice, "Stop loss"); err != nil {
		return nil, err
	}

	riskPerShare := in.EntryPrice - in.StopLoss
	if riskPerShare == 0 {
		return nil, errors.NewRelationshipError(FieldStopLoss, []string{FieldEntryPrice, FieldStopLoss},
			"Stop loss cannot equal entry price", errors.ErrZeroRisk)
	}
	if riskPerShare < 0 {
		return nil, errors.NewRelationshipError(FieldStopLoss, []string{FieldEntryPrice, FieldStopLoss},
			"Entry price must be above stop loss (long positions only)", errors.ErrShortNotSupported)
	}

	riskAmount := in.AccountSize * in.RiskPercent / 100
	shares := math.Floor(riskAmount / riskPerShare)
	if shares < 1 {
		return nil, errors.NewRelationshipError(FieldRiskPercent, []string{FieldAccountSize, FieldRiskPercent, FieldEntryPrice, FieldStopLoss},
			fmt.Sprintf("Risk amount $%.2f is less than the risk of one share ($%.2f)", riskAmount, riskPerShare), errors.ErrRiskTooSmall)
	}

	positionValue := shares * in.EntryPrice
	return &PositionSize{
		Shares:           int(shares),
		PositionValue:    round2(positionValue),
		RiskAmount:       round2(riskAmount),
		RiskPerShare:     round2(riskPerShare),
		PercentOfAccount: round2(positionValue / in.AccountSize * 100),
	}, nil
}

// RiskReward computes reward per share over risk per share. The direction is
// taken from the stop: below entry is long, above is short. The target must
// sit on the far side of the stop and differ from the entry; a target
// between stop and entry is accepted but never a valid trade.
func (l Limits) RiskReward(in RiskRewardInput) (result *RiskReward, err error) {
	defer recoverCalculation(&result, &err)

	if err := checkValue(FieldEntryPrice, in.EntryPrice, l.MaxPrice, "Entry price"); err != nil {
		return nil, err
	}
	if err := checkValue(FieldStopLoss, in.StopLoss, l.MaxPrice, "Stop loss"); err != nil {
		return nil, err
	}
	if err := checkValue(FieldTargetPrice, in.TargetPrice, l.MaxPrice, "Target price"); err != nil {
		return nil, err
	}

	all := []string{FieldEntryPrice, FieldStopLoss, FieldTargetPrice}
	if in.EntryPrice == in.StopLoss {
		return nil, errors.NewRelationshipError(FieldStopLoss, all, "Stop loss cannot equal entry price", errors.ErrZeroRisk)
	}
	if in.TargetPrice == in.EntryPrice {
		return nil, errors.NewRelationshipError(FieldTargetPrice, all, "Target price cannot equal entry price", nil)
	}

	positionType := PositionLong
	if in.StopLoss > in.EntryPrice {
		positionType = PositionShort
	}
	if positionType == PositionLong && in.TargetPrice <= in.StopLoss {
		return nil, errors.NewRelationshipError(FieldTargetPrice, all,
			"Prices do not form a valid long (stop < entry < target) or short (target < entry < stop) trade", nil)
	}
	if positionType == PositionShort && in.TargetPrice >= in.StopLoss {
		return nil, errors.NewRelationshipError(FieldTargetPrice, all,
			"Prices do not form a valid long (stop < entry < target) or short (target < entry < stop) trade", nil)
	}

	risk := math.Abs(in.EntryPrice - in.StopLoss)
	reward := math.Abs(in.TargetPrice - in.EntryPrice)
	ratio := reward / risk

	return &RiskReward{
		RiskPerShare:   round2(risk),
		RewardPerShare: round2(reward),
		RRRatio:        round2(ratio),
		PositionType:   positionType,
		IsValidTrade:   ratio >= 1,
	}, nil
}

// ParseNumber parses a free-text numeric field. Empty input is reported as
// an InputError like any other malformed value.
func ParseNumber(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.NewInputError(field, s, "value is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewInputError(field, s, "must be a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewInputError(field, s, "must be a finite number")
	}
	return v, nil
}

func checkValue(field string, v, max float64, label string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.NewInputError(field, v, label+" must be a finite number")
	}
	if v <= 0 {
		return errors.NewInputError(field, v, label+" must be greater than zero")
	}
	if v > max {
		return errors.NewInputError(field, v, fmt.Sprintf("%s cannot exceed %s", label, strconv.FormatFloat(max, 'f', -1, 64)))
	}
	return nil
}

func recoverCalculation[T any](result **T, err *error) {
	if r := recover(); r != nil {
		*result = nil
		*err = fmt.Errorf("%w: %v", errors.ErrCalculation, r)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
