// Package export writes completed checklists as trade record files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"trade-checklist/internal/errors"
	"trade-checklist/internal/models"
)

// RecordVersion is the trade record format version.
const RecordVersion = "2.0"

// Format is a trade record file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", errors.NewInputError("format", s, "must be json or yaml")
}

// FileName returns the JSON export file name for a date.
func FileName(t time.Time) string {
	return FileNameFor(t, FormatJSON)
}

// FileNameFor returns the export file name for a date and format.
func FileNameFor(t time.Time, format Format) string {
	return fmt.Sprintf("trade-checklist-%s.%s", t.Format("2006-01-02"), format)
}

// NewRecord summarises a checklist. The risk percent is the style's reduced
// risk when the higher timeframe is consolidating.
func NewRecord(state models.ChecklistState, now time.Time) (*models.TradeRecord, error) {
	if !state.HasStyle() {
		return nil, errors.ErrNoStyle
	}
	cfg := state.TimeframeConfig

	risk := cfg.RiskPerTrade
	if state.ConsolidationDetected {
		risk = cfg.RiskConsolidation
	}

	return &models.TradeRecord{
		ExportDate:   now.UTC().Format(time.RFC3339),
		TradingStyle: state.TradingStyle,
		Timeframes: models.TimeframeCodes{
			Higher: cfg.Higher.Code,
			Mid:    cfg.Mid.Code,
			Lower:  cfg.Lower.Code,
		},
		RiskPercent:      risk,
		HoldTimeExpected: cfg.HoldTime,
		HigherTFChecks:   state.HigherTF,
		MidTFChecks:      state.MidTF,
		LowerTFChecks:    state.LowerTF,
		PositionSize:     state.PositionSizeRecommendation,
		FinalDecision:    state.FinalDecision,
		Version:          RecordVersion,
	}, nil
}

// Encode serializes a trade record. YAML output uses the JSON field names.
func Encode(record *models.TradeRecord, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil || format == FormatJSON {
		return data, err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write saves the JSON trade record for state into dir and returns the file
// path. An existing export from the same day is overwritten.
func Write(dir string, state models.ChecklistState, now time.Time) (string, error) {
	return WriteFormat(dir, state, now, FormatJSON)
}

// WriteFormat is Write with a choice of file format.
func WriteFormat(dir string, state models.ChecklistState, now time.Time, format Format) (string, error) {
	record, err := NewRecord(state, now)
	if err != nil {
		return "", err
	}

	data, err := Encode(record, format)
	if err != nil {
		return "", fmt.Errorf("serializing trade record: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, FileNameFor(now, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing trade record: %w", err)
	}
	return path, nil
}
