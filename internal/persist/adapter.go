// Package persist saves checklist state and the style preference to local
// storage on a best-effort basis.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"trade-checklist/internal/errors"
	"trade-checklist/internal/logging"
	"trade-checklist/internal/models"
	"trade-checklist/internal/store"
)

// Storage keys and snapshot format.
const (
	StateKey        = "mtf-checklist-state"
	StyleKey        = "mtf-checklist-style"
	SnapshotVersion = "1.0"
	DefaultExpiry   = 24 * time.Hour
)

// Snapshot is the stored form of a checklist. Timestamp is epoch milliseconds.
type Snapshot struct {
	State     models.ChecklistState `json:"state"`
	Timestamp int64                 `json:"timestamp"`
	Version   string                `json:"version"`
}

// StylePreference is the stored trading style choice.
type StylePreference struct {
	Style     models.TradingStyle    `json:"style"`
	Config    models.TimeframeConfig `json:"config"`
	Timestamp int64                  `json:"timestamp"`
}

// Adapter reads and writes snapshots. It never interprets the state beyond
// the structural checks needed to reject malformed data.
type Adapter struct {
	kv     store.KV
	expiry time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewAdapter creates an Adapter over kv. A non-positive expiry uses DefaultExpiry.
func NewAdapter(kv store.KV, expiry time.Duration, logger zerolog.Logger) *Adapter {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Adapter{
		kv:     kv,
		expiry: expiry,
		now:    time.Now,
		logger: logging.WithComponent(logger, "persist"),
	}
}

// SetClock replaces the time source.
func (a *Adapter) SetClock(now func() time.Time) {
	a.now = now
}

// Save writes the checklist snapshot. When storage is full it clears local
// storage and retries once; a second failure is returned to the caller.
func (a *Adapter) Save(ctx context.Context, state models.ChecklistState) error {
	data, err := json.Marshal(Snapshot{
		State:     state,
		Timestamp: a.now().UnixMilli(),
		Version:   SnapshotVersion,
	})
	if err != nil {
		return errors.NewStorageError("save", StateKey, err)
	}

	start := time.Now()
	err = a.kv.Set(ctx, StateKey, data)
	logging.LogStorage(a.logger, "save", StateKey, time.Since(start), err)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.ErrQuotaExceeded) {
		return errors.NewStorageError("save", StateKey, err)
	}

	a.logger.Warn().Err(err).Msg("Storage full, clearing and retrying")
	if clearErr := a.kv.Clear(ctx); clearErr != nil {
		return errors.NewStorageError("save", StateKey, clearErr)
	}
	if err := a.kv.Set(ctx, StateKey, data); err != nil {
		a.logger.Error().Err(err).Msg("Failed to save checklist after clearing storage")
		return errors.NewStorageError("save", StateKey, err)
	}

	// The style preference went with the clear.
	if state.HasStyle() {
		if err := a.SaveStylePreference(ctx, state.TradingStyle, *state.TimeframeConfig); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to restore style preference after clearing storage")
		}
	}
	return nil
}

// Load returns the saved checklist, or nil when there is none. Corrupt,
// structurally invalid and expired snapshots are removed from storage.
func (a *Adapter) Load(ctx context.Context) *models.ChecklistState {
	snap, err := a.loadSnapshot(ctx)
	if err != nil {
		return nil
	}
	state := snap.State
	return &state
}

// HasSavedState reports whether a usable snapshot exists.
func (a *Adapter) HasSavedState(ctx context.Context) bool {
	return a.Load(ctx) != nil
}

// LastSaveTime returns when the usable snapshot was written.
func (a *Adapter) LastSaveTime(ctx context.Context) (time.Time, bool) {
	snap, err := a.loadSnapshot(ctx)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(snap.Timestamp), true
}

// Clear removes the checklist snapshot. The style preference is kept.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.kv.Delete(ctx, StateKey); err != nil {
		return errors.NewStorageError("clear", StateKey, err)
	}
	return nil
}

// ClearAll removes the checklist snapshot and the style preference.
func (a *Adapter) ClearAll(ctx context.Context) error {
	if err := a.Clear(ctx); err != nil {
		return err
	}
	if err := a.kv.Delete(ctx, StyleKey); err != nil {
		return errors.NewStorageError("clear", StyleKey, err)
	}
	return nil
}

// SaveStylePreference stores the style choice separately from the checklist.
func (a *Adapter) SaveStylePreference(ctx context.Context, style models.TradingStyle, cfg models.TimeframeConfig) error {
	data, err := json.Marshal(StylePreference{
		Style:     style,
		Config:    cfg,
		Timestamp: a.now().UnixMilli(),
	})
	if err != nil {
		return errors.NewStorageError("save", StyleKey, err)
	}
	if err := a.kv.Set(ctx, StyleKey, data); err != nil {
		return errors.NewStorageError("save", StyleKey, err)
	}
	return nil
}

// LoadStylePreference returns the stored style choice, or nil. An unreadable
// preference is removed.
func (a *Adapter) LoadStylePreference(ctx context.Context) *StylePreference {
	data, err := a.kv.Get(ctx, StyleKey)
	if err != nil {
		if !errors.Is(err, errors.ErrKeyNotFound) {
			a.logger.Warn().Err(err).Msg("Failed to read style preference")
		}
		return nil
	}

	var pref StylePreference
	if err := json.Unmarshal(data, &pref); err != nil {
		a.discard(ctx, StyleKey, err)
		return nil
	}
	if _, ok := models.ParseTradingStyle(string(pref.Style)); !ok {
		a.discard(ctx, StyleKey, fmt.Errorf("%w: unknown style %q", errors.ErrCorruptSnapshot, pref.Style))
		return nil
	}
	return &pref
}

func (a *Adapter) loadSnapshot(ctx context.Context) (*Snapshot, error) {
	data, err := a.kv.Get(ctx, StateKey)
	if err != nil {
		if !errors.Is(err, errors.ErrKeyNotFound) {
			a.logger.Warn().Err(err).Msg("Failed to read checklist snapshot")
		}
		return nil, err
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		a.discard(ctx, StateKey, err)
		return nil, err
	}

	age := a.now().Sub(time.UnixMilli(snap.Timestamp))
	if age > a.expiry {
		err := fmt.Errorf("%w: saved %s ago", errors.ErrSnapshotExpired, age.Round(time.Minute))
		a.discard(ctx, StateKey, err)
		return nil, err
	}
	return snap, nil
}

// decodeSnapshot parses a stored snapshot and checks that the state has a
// trading style, a known step and all three timeframe records.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	var envelope struct {
		State     map[string]json.RawMessage `json:"state"`
		Timestamp *int64                     `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrCorruptSnapshot, err)
	}
	if envelope.State == nil || envelope.Timestamp == nil {
		return nil, fmt.Errorf("%w: missing state or timestamp", errors.ErrCorruptSnapshot)
	}
	for _, key := range []string{"tradingStyle", "currentStep", "higherTF", "midTF", "lowerTF"} {
		raw, ok := envelope.State[key]
		if !ok || string(raw) == "null" {
			return nil, fmt.Errorf("%w: missing %s", errors.ErrCorruptSnapshot, key)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrCorruptSnapshot, err)
	}
	if _, ok := models.ParseTradingStyle(string(snap.State.TradingStyle)); !ok {
		return nil, fmt.Errorf("%w: unknown trading style %q", errors.ErrCorruptSnapshot, snap.State.TradingStyle)
	}
	if !snap.State.CurrentStep.Valid() {
		return nil, fmt.Errorf("%w: unknown step %q", errors.ErrCorruptSnapshot, snap.State.CurrentStep)
	}
	return &snap, nil
}

func (a *Adapter) discard(ctx context.Context, key string, reason error) {
	a.logger.Warn().Err(reason).Str("key", key).Msg("Discarding saved data")
	if err := a.kv.Delete(ctx, key); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Failed to remove saved data")
	}
}
