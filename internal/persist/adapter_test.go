package persist

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-checklist/internal/errors"
	"trade-checklist/internal/models"
	"trade-checklist/internal/rules"
	"trade-checklist/internal/store"
)

func swingState() models.ChecklistState {
	cfg := rules.MustConfigFor(models.StyleSwing)
	state := models.NewChecklistState()
	state.TradingStyle = models.StyleSwing
	state.TimeframeConfig = &cfg
	state.CurrentStep = models.StepMid
	state.HigherTF = models.HigherTimeframeChecks{
		HigherHighsLows: true, Above50EMA: true, EMAAlignment: true,
		NotConsolidating: true, ClearFromResistance: true, IsPassed: true, IsComplete: true,
	}
	state.MidTF.Prices = models.Prices{Entry: "50", Stop: "48", Target: ""}
	state.MidTF.GapPercentage = "1.5"
	state.PositionSizeRecommendation = 100
	return state
}

func newTestAdapter(kv store.KV, now *time.Time) *Adapter {
	a := NewAdapter(kv, 24*time.Hour, zerolog.Nop())
	a.SetClock(func() time.Time { return *now })
	return a
}

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	a := newTestAdapter(store.NewMemoryStore(0), &now)

	state := swingState()
	require.NoError(t, a.Save(ctx, state))

	now = now.Add(23 * time.Hour)
	got := a.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, state, *got)

	assert.True(t, a.HasSavedState(ctx))
	saved, ok := a.LastSaveTime(ctx)
	require.True(t, ok)
	assert.Equal(t, now.Add(-23*time.Hour).UnixMilli(), saved.UnixMilli())
}

func TestAdapter_SnapshotFormat(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	kv := store.NewMemoryStore(0)
	a := newTestAdapter(kv, &now)

	require.NoError(t, a.Save(ctx, swingState()))

	data, err := kv.Get(ctx, StateKey)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1.0", raw["version"])
	assert.Equal(t, float64(now.UnixMilli()), raw["timestamp"])

	state := raw["state"].(map[string]interface{})
	assert.Equal(t, "swing", state["tradingStyle"])
	assert.Equal(t, "mid", state["currentStep"])
}

func TestAdapter_Expired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	kv := store.NewMemoryStore(0)
	a := newTestAdapter(kv, &now)

	require.NoError(t, a.Save(ctx, swingState()))

	now = now.Add(25 * time.Hour)
	assert.Nil(t, a.Load(ctx))

	_, err := kv.Get(ctx, StateKey)
	assert.ErrorIs(t, err, errors.ErrKeyNotFound, "expired snapshot must be removed")
}

func TestAdapter_CorruptOrInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"state":`},
		{"no state", `{"timestamp":1,"version":"1.0"}`},
		{"no timestamp", `{"state":{"tradingStyle":"day","currentStep":"higher","higherTF":{},"midTF":{},"lowerTF":{}}}`},
		{"no style", `{"state":{"currentStep":"higher","higherTF":{},"midTF":{},"lowerTF":{}},"timestamp":NOW}`},
		{"null style", `{"state":{"tradingStyle":null,"currentStep":"higher","higherTF":{},"midTF":{},"lowerTF":{}},"timestamp":NOW}`},
		{"missing lowerTF", `{"state":{"tradingStyle":"day","currentStep":"higher","higherTF":{},"midTF":{}},"timestamp":NOW}`},
		{"unknown step", `{"state":{"tradingStyle":"day","currentStep":"done","higherTF":{},"midTF":{},"lowerTF":{}},"timestamp":NOW}`},
		{"unknown style", `{"state":{"tradingStyle":"scalp","currentStep":"higher","higherTF":{},"midTF":{},"lowerTF":{}},"timestamp":NOW}`},
		{"wrong types", `{"state":{"tradingStyle":"day","currentStep":"higher","higherTF":[],"midTF":{},"lowerTF":{}},"timestamp":NOW}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
			kv := store.NewMemoryStore(0)
			a := newTestAdapter(kv, &now)

			data := strings.ReplaceAll(tt.data, "NOW", "1717407000000")
			require.NoError(t, kv.Set(ctx, StateKey, []byte(data)))

			assert.Nil(t, a.Load(ctx))
			_, err := kv.Get(ctx, StateKey)
			assert.ErrorIs(t, err, errors.ErrKeyNotFound)
		})
	}
}

func TestAdapter_MinimalValidSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1717407000000)
	kv := store.NewMemoryStore(0)
	a := newTestAdapter(kv, &now)

	data := `{"state":{"tradingStyle":"day","currentStep":"higher","higherTF":{},"midTF":{},"lowerTF":{}},"timestamp":1717407000000,"version":"1.0"}`
	require.NoError(t, kv.Set(ctx, StateKey, []byte(data)))

	got := a.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, models.StyleDay, got.TradingStyle)
	assert.Equal(t, models.StepHigher, got.CurrentStep)
}

func TestAdapter_QuotaRecovery(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

	state := swingState()
	size, err := json.Marshal(Snapshot{State: state, Timestamp: now.UnixMilli(), Version: SnapshotVersion})
	require.NoError(t, err)

	// Room for the snapshot and the style preference, but not with the junk.
	kv := store.NewMemoryStore(len(size) + 1024)
	require.NoError(t, kv.Set(ctx, "junk", []byte(strings.Repeat("x", 1024))))

	a := newTestAdapter(kv, &now)
	require.NoError(t, a.Save(ctx, state))

	assert.NotNil(t, a.Load(ctx))
	_, err = kv.Get(ctx, "junk")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)

	pref := a.LoadStylePreference(ctx)
	require.NotNil(t, pref)
	assert.Equal(t, models.StyleSwing, pref.Style)
}

func TestAdapter_QuotaUnrecoverable(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	a := newTestAdapter(store.NewMemoryStore(32), &now)

	err := a.Save(ctx, swingState())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQuotaExceeded)

	var storageErr *errors.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Nil(t, a.Load(ctx))
}

func TestAdapter_StylePreferenceSurvivesClear(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	a := newTestAdapter(store.NewMemoryStore(0), &now)

	cfg := rules.MustConfigFor(models.StyleDay)
	require.NoError(t, a.SaveStylePreference(ctx, models.StyleDay, cfg))
	require.NoError(t, a.Save(ctx, swingState()))

	require.NoError(t, a.Clear(ctx))
	assert.False(t, a.HasSavedState(ctx))

	pref := a.LoadStylePreference(ctx)
	require.NotNil(t, pref)
	assert.Equal(t, models.StyleDay, pref.Style)
	assert.Equal(t, cfg, pref.Config)

	// the preference does not expire with the checklist
	now = now.Add(72 * time.Hour)
	assert.NotNil(t, a.LoadStylePreference(ctx))

	require.NoError(t, a.ClearAll(ctx))
	assert.Nil(t, a.LoadStylePreference(ctx))
}

func TestAdapter_CorruptStylePreference(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	kv := store.NewMemoryStore(0)
	a := newTestAdapter(kv, &now)

	require.NoError(t, kv.Set(ctx, StyleKey, []byte(`{"style":"scalp"}`)))
	assert.Nil(t, a.LoadStylePreference(ctx))
	assert.Empty(t, kv.Keys())
}
