package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-checklist/internal/checklist"
	"trade-checklist/internal/config"
	"trade-checklist/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	cfg.Log.File = false
	cfg.Export.Dir = filepath.Join(dir, "exports")
	return cfg
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(cfg, zerolog.Nop())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfg, args...)
	require.NoError(t, err, "%v: %s", args, out)
	return out
}

func status(t *testing.T, cfg *config.Config) statusView {
	t.Helper()
	var view statusView
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "checklist", "status", "--json")), &view))
	return view
}

func TestCalcSize_JSON(t *testing.T) {
	cfg := testConfig(t)
	out := mustRun(t, cfg, "calc", "size", "--account", "10000", "--risk", "1", "--entry", "50", "--stop", "48", "--json")

	var result struct {
		Success bool
		Data    struct {
			Shares           int    `json:"shares"`
			PositionValue    string `json:"positionValue"`
			RiskAmount       string `json:"riskAmount"`
			RiskPerShare     string `json:"riskPerShare"`
			PercentOfAccount string `json:"percentOfAccount"`
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 50, result.Data.Shares)
	assert.Equal(t, "2500.00", result.Data.PositionValue)
	assert.Equal(t, "100.00", result.Data.RiskAmount)
	assert.Equal(t, "2.00", result.Data.RiskPerShare)
	assert.Equal(t, "25.00", result.Data.PercentOfAccount)
}

func TestCalcSize_Text(t *testing.T) {
	cfg := testConfig(t)
	out := mustRun(t, cfg, "calc", "size", "--account", "10000", "--risk", "1", "--entry", "50", "--stop", "48")

	assert.Contains(t, out, "Shares:          50")
	assert.Contains(t, out, "$2,500.00")
}

func TestCalcSize_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"non-numeric account", []string{"--account", "abc", "--risk", "1", "--entry", "50", "--stop", "48"}, "accountSize"},
		{"missing risk", []string{"--account", "10000", "--entry", "50", "--stop", "48"}, "riskPercent"},
		{"stop equals entry", []string{"--account", "10000", "--risk", "1", "--entry", "50", "--stop", "50"}, "stopLoss"},
		{"risk too small", []string{"--account", "100", "--risk", "1", "--entry", "50", "--stop", "48"}, "riskPercent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			args := append([]string{"calc", "size", "--json"}, tt.args...)
			out, err := runCLI(t, cfg, args...)
			require.Error(t, err)

			var result calcResult
			require.NoError(t, json.Unmarshal([]byte(out), &result))
			assert.False(t, result.Success)
			assert.Equal(t, tt.field, result.Field)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestCalcRR_TargetBetweenStopAndEntry(t *testing.T) {
	cfg := testConfig(t)
	out := mustRun(t, cfg, "calc", "rr", "--entry", "50", "--stop", "48", "--target", "49", "--json")

	var result struct {
		Success bool
		Data    struct {
			RRRatio      string `json:"rrRatio"`
			PositionType string `json:"positionType"`
			IsValidTrade bool   `json:"isValidTrade"`
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "0.50", result.Data.RRRatio)
	assert.Equal(t, "Long", result.Data.PositionType)
	assert.False(t, result.Data.IsValidTrade)
}

func TestCalcRR_RelationshipErrorText(t *testing.T) {
	cfg := testConfig(t)
	out, err := runCLI(t, cfg, "calc", "rr", "--entry", "50", "--stop", "48", "--target", "47")
	require.Error(t, err)
	assert.Contains(t, out, "Prices do not form a valid long")
}

func TestChecklist_PersistsAcrossCommands(t *testing.T) {
	cfg := testConfig(t)

	view := status(t, cfg)
	assert.Equal(t, models.StepStyleSelection, view.State.CurrentStep)

	mustRun(t, cfg, "checklist", "style", "swing")
	mustRun(t, cfg, "checklist", "set", "entry", "50")
	mustRun(t, cfg, "checklist", "toggle", "higher", "above50EMA")

	view = status(t, cfg)
	assert.Equal(t, models.StepHigher, view.State.CurrentStep)
	assert.Equal(t, models.StyleSwing, view.State.TradingStyle)
	assert.Equal(t, "50", view.State.MidTF.Prices.Entry)
	assert.True(t, view.State.HigherTF.Above50EMA)
	assert.False(t, view.Unlocked[models.StepMid])

	_, err := runCLI(t, cfg, "checklist", "advance")
	assert.Error(t, err)

	for i := 1; i <= checklist.HigherCheckCount; i++ {
		if i == 2 {
			continue
		}
		mustRun(t, cfg, "checklist", "toggle", "higher", strconv.Itoa(i))
	}
	mustRun(t, cfg, "checklist", "advance")

	view = status(t, cfg)
	assert.Equal(t, models.StepMid, view.State.CurrentStep)
	assert.Equal(t, 100, view.State.PositionSizeRecommendation)

	mustRun(t, cfg, "checklist", "back")
	assert.Equal(t, models.StepHigher, status(t, cfg).State.CurrentStep)

	mustRun(t, cfg, "checklist", "restart")
	assert.Equal(t, models.StepStyleSelection, status(t, cfg).State.CurrentStep)
}

func TestChecklist_ExecuteAndJournal(t *testing.T) {
	cfg := testConfig(t)

	mustRun(t, cfg, "checklist", "style", "day")
	for _, stage := range []string{"higher", "mid", "lower"} {
		n := checklist.MidCheckCount
		if stage == "higher" {
			n = checklist.HigherCheckCount
		}
		for i := 1; i <= n; i++ {
			mustRun(t, cfg, "checklist", "toggle", stage, strconv.Itoa(i))
		}
		mustRun(t, cfg, "checklist", "advance")
	}

	view := status(t, cfg)
	require.Equal(t, models.StepFinal, view.State.CurrentStep)
	require.NotNil(t, view.Recommendation)
	assert.Equal(t, models.StatusFullSize, view.Recommendation.Status)

	exportOut := mustRun(t, cfg, "checklist", "export", "--json")
	assert.Contains(t, exportOut, "trade-checklist-")

	out := mustRun(t, cfg, "checklist", "execute", "--notes", "clean retest", "--json")
	var entry models.JournalEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, models.DecisionExecute, entry.Action)
	assert.Equal(t, "clean retest", entry.Notes)

	assert.Equal(t, models.StepHigher, status(t, cfg).State.CurrentStep)

	var entries []models.JournalEntry
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "journal", "list", "--json")), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, models.TimeframeCodes{Higher: "1h", Mid: "15m", Lower: "5m"}, entries[0].Timeframes)

	text := mustRun(t, cfg, "journal", "list")
	assert.Contains(t, text, "1 decisions, 1 executed, 0 passed")
}

func TestChecklist_ExecuteBeforeFinalFails(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "checklist", "style", "position")

	_, err := runCLI(t, cfg, "checklist", "execute")
	assert.Error(t, err)
}

func TestParseCheck(t *testing.T) {
	id, err := parseCheck(models.StageMid, "3")
	require.NoError(t, err)
	assert.Equal(t, models.CheckVolumeConfirmation, id)

	id, err = parseCheck(models.StageLower, "STOPDISTANCEOK")
	require.NoError(t, err)
	assert.Equal(t, models.CheckStopDistanceOK, id)

	_, err = parseCheck(models.StageHigher, "6")
	assert.Error(t, err)
	_, err = parseCheck(models.StageHigher, "riskReward2to1")
	assert.Error(t, err)
}

func TestParseSetAction(t *testing.T) {
	action, err := parseSetAction("target", "56")
	require.NoError(t, err)
	assert.Equal(t, checklist.UpdatePrice{Field: checklist.PriceTarget, Value: "56"}, action)

	action, err = parseSetAction("lower-stop", "47.5")
	require.NoError(t, err)
	assert.Equal(t, checklist.UpdatePositionData{Field: checklist.PositionStop, Value: "47.5"}, action)

	action, err = parseSetAction("pattern", "Pullback")
	require.NoError(t, err)
	assert.Equal(t, checklist.UpdatePatternType{Pattern: models.PatternPullback}, action)

	_, err = parseSetAction("pattern", "flag")
	assert.Error(t, err)
	_, err = parseSetAction("leverage", "2")
	assert.Error(t, err)
}

func TestStepNavigation(t *testing.T) {
	assert.Equal(t, models.StepHigher, nextStep(models.StepStyleSelection))
	assert.Equal(t, models.StepFinal, nextStep(models.StepLower))
	assert.Equal(t, models.StepFinal, nextStep(models.StepFinal))

	assert.Equal(t, models.StepLower, previousStep(models.StepFinal))
	assert.Equal(t, models.StepHigher, previousStep(models.StepMid))
	assert.Equal(t, models.StepHigher, previousStep(models.StepHigher))
}
