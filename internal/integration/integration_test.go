// Package integration provides end-to-end tests for the checklist over the
// SQLite store.
package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trade-checklist/internal/checklist"
	"trade-checklist/internal/export"
	"trade-checklist/internal/models"
	"trade-checklist/internal/persist"
	"trade-checklist/internal/store"
)

func openStore(t *testing.T, path string) *store.SQLiteStore {
	t.Helper()
	ds, err := store.NewSQLiteStore(path, 0)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return ds
}

func newSession(ds store.DataStore, debounce time.Duration) *checklist.Session {
	cfg := checklist.DefaultSessionConfig()
	cfg.Debounce = debounce
	return checklist.NewSession(ds, cfg, zerolog.Nop())
}

func dispatch(t *testing.T, s *checklist.Session, actions ...checklist.Action) {
	t.Helper()
	for _, a := range actions {
		if err := s.Dispatch(context.Background(), a); err != nil {
			t.Fatalf("%s failed: %v", a.Name(), err)
		}
	}
}

func checkStage(t *testing.T, s *checklist.Session, stage models.Stage) {
	t.Helper()
	state := s.State()
	for _, f := range state.Flags(stage) {
		if !f.Passed {
			dispatch(t, s, checklist.ToggleCheck{Stage: stage, Check: f.ID})
		}
	}
}

// TestEndToEndWorkflow walks a swing trade from style selection to a journaled
// decision, reopening the database between stages.
func TestEndToEndWorkflow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "checklist.db")

	// Stage 1: higher timeframe, then close the process.
	ds := openStore(t, dbPath)
	s := newSession(ds, time.Hour)
	if s.Start(ctx) {
		t.Fatal("Fresh database should have nothing to restore")
	}
	dispatch(t, s, checklist.SelectStyle{Style: models.StyleSwing})
	checkStage(t, s, models.StageHigher)
	dispatch(t, s, checklist.Advance{To: models.StepMid})
	dispatch(t, s,
		checklist.UpdatePrice{Field: checklist.PriceEntry, Value: "50"},
		checklist.UpdatePrice{Field: checklist.PriceStop, Value: "48"},
		checklist.UpdatePrice{Field: checklist.PriceTarget, Value: "56"},
		checklist.UpdateGapPercentage{Value: "0.8"},
	)
	s.Close()
	ds.Close()

	// Stage 2: a new session picks up where the last one stopped.
	ds = openStore(t, dbPath)
	defer ds.Close()
	s = newSession(ds, time.Hour)
	defer s.Close()

	if !s.Start(ctx) {
		t.Fatal("Expected the saved checklist to be restored")
	}
	state := s.State()
	if state.CurrentStep != models.StepMid {
		t.Fatalf("Restored step = %s, want mid", state.CurrentStep)
	}
	if !state.MidTF.RiskReward2to1 || !state.MidTF.GapAcceptable {
		t.Errorf("Auto-checked fields not restored: rr=%v gap=%v", state.MidTF.RiskReward2to1, state.MidTF.GapAcceptable)
	}

	checkStage(t, s, models.StageMid)
	dispatch(t, s, checklist.Advance{To: models.StepLower})
	dispatch(t, s,
		checklist.UpdatePositionData{Field: checklist.PositionAccountSize, Value: "25000"},
		checklist.UpdatePositionData{Field: checklist.PositionRiskPercent, Value: "1"},
		checklist.UpdatePositionData{Field: checklist.PositionEntry, Value: "50.5"},
		checklist.UpdatePositionData{Field: checklist.PositionStop, Value: "48.5"},
	)
	state = s.State()
	if !state.LowerTF.PositionSizeValid || !state.LowerTF.RiskRewardValid {
		t.Errorf("Lower auto-checks not set: size=%v rr=%v", state.LowerTF.PositionSizeValid, state.LowerTF.RiskRewardValid)
	}
	checkStage(t, s, models.StageLower)
	dispatch(t, s, checklist.Advance{To: models.StepFinal})

	rec, ok := s.Recommendation()
	if !ok || rec.Status != models.StatusFullSize {
		t.Fatalf("Recommendation = %+v (ok=%v), want FULL SIZE", rec, ok)
	}

	// Stage 3: export and decide.
	path, err := export.Write(filepath.Join(dir, "exports"), s.State(), time.Now())
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	var record models.TradeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if record.Version != export.RecordVersion || record.PositionSize != 100 {
		t.Errorf("Unexpected export: version=%s size=%d", record.Version, record.PositionSize)
	}

	entry, err := s.Execute(ctx, "breakout retest")
	if err != nil {
		t.Fatalf("Failed to execute: %v", err)
	}

	journal, err := ds.GetJournal(ctx, store.JournalFilter{Style: models.StyleSwing})
	if err != nil {
		t.Fatalf("Failed to read journal: %v", err)
	}
	if len(journal) != 1 || journal[0].ID != entry.ID {
		t.Fatalf("Journal = %+v, want the executed entry", journal)
	}
	if journal[0].Snapshot.LowerTF.PositionData.AccountSize != "25000" {
		t.Errorf("Journal snapshot lost position data")
	}

	if _, err := ds.Get(ctx, persist.StateKey); err == nil {
		t.Error("Checklist snapshot should be cleared after a decision")
	}
	if s.State().CurrentStep != models.StepHigher {
		t.Errorf("Checklist should restart at the higher timeframe, got %s", s.State().CurrentStep)
	}
}

// TestConcurrentDispatch checks that concurrent edits are serialised and the
// flushed snapshot matches the final state.
func TestConcurrentDispatch(t *testing.T) {
	ctx := context.Background()
	ds := openStore(t, filepath.Join(t.TempDir(), "concurrent.db"))
	defer ds.Close()

	s := newSession(ds, time.Hour)
	dispatch(t, s, checklist.SelectStyle{Style: models.StyleDay})

	checks := []models.CheckID{
		models.CheckHigherHighsLows,
		models.CheckAbove50EMA,
		models.CheckEMAAlignment,
		models.CheckNotConsolidating,
		models.CheckClearFromResistance,
	}

	var wg sync.WaitGroup
	for _, id := range checks {
		wg.Add(1)
		go func(id models.CheckID) {
			defer wg.Done()
			if err := s.Dispatch(ctx, checklist.ToggleCheck{Stage: models.StageHigher, Check: id}); err != nil {
				t.Errorf("Toggle %s failed: %v", id, err)
			}
		}(id)
	}
	wg.Wait()
	s.Close()

	state := s.State()
	if !state.HigherTF.IsPassed {
		t.Fatal("All five higher checks should be ticked")
	}

	adapter := persist.NewAdapter(ds, persist.DefaultExpiry, zerolog.Nop())
	saved := adapter.Load(ctx)
	if saved == nil {
		t.Fatal("Expected a saved snapshot")
	}
	if saved.HigherTF != state.HigherTF {
		t.Errorf("Saved checks %+v differ from state %+v", saved.HigherTF, state.HigherTF)
	}
}
