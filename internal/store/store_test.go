package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-checklist/internal/errors"
	"trade-checklist/internal/models"
)

func openStores(t *testing.T, quota int) map[string]DataStore {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"), quota)
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]DataStore{
		"sqlite": sqlite,
		"memory": NewMemoryStore(quota),
	}
}

func TestKV_GetMissing(t *testing.T) {
	for name, s := range openStores(t, 0) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "nope")
			assert.ErrorIs(t, err, errors.ErrKeyNotFound)
		})
	}
}

func TestKV_SetOverwriteDeleteClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t, 0) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "a", []byte("1")))
			require.NoError(t, s.Set(ctx, "a", []byte("2")))
			require.NoError(t, s.Set(ctx, "b", []byte("3")))

			got, err := s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "2", string(got))

			require.NoError(t, s.Delete(ctx, "a"))
			require.NoError(t, s.Delete(ctx, "a"))
			_, err = s.Get(ctx, "a")
			assert.ErrorIs(t, err, errors.ErrKeyNotFound)

			require.NoError(t, s.Clear(ctx))
			_, err = s.Get(ctx, "b")
			assert.ErrorIs(t, err, errors.ErrKeyNotFound)
		})
	}
}

func TestKV_Quota(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t, 64) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "first", []byte(strings.Repeat("x", 40))))

			err := s.Set(ctx, "second", []byte(strings.Repeat("y", 40)))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrQuotaExceeded)

			var storageErr *errors.StorageError
			require.ErrorAs(t, err, &storageErr)
			assert.Equal(t, "second", storageErr.Key)

			// replacing a key does not count its old value
			require.NoError(t, s.Set(ctx, "first", []byte(strings.Repeat("z", 50))))

			require.NoError(t, s.Clear(ctx))
			require.NoError(t, s.Set(ctx, "second", []byte(strings.Repeat("y", 40))))
		})
	}
}

func TestJournal_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range openStores(t, 0) {
		t.Run(name, func(t *testing.T) {
			entries := []models.JournalEntry{
				{ID: "1", CreatedAt: base, Style: models.StyleDay, Action: models.DecisionExecute, Status: models.StatusFullSize, PositionSize: 100},
				{ID: "2", CreatedAt: base.Add(time.Hour), Style: models.StyleSwing, Action: models.DecisionPass, Status: models.StatusFullSize, PositionSize: 100},
				{ID: "3", CreatedAt: base.Add(2 * time.Hour), Style: models.StyleDay, Action: models.DecisionPass, Status: models.StatusFullSize, PositionSize: 100},
			}
			for i := range entries {
				entries[i].Snapshot = models.NewChecklistState()
				require.NoError(t, s.SaveJournalEntry(ctx, &entries[i]))
			}

			all, err := s.GetJournal(ctx, JournalFilter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "3", all[0].ID)
			assert.Equal(t, "1", all[2].ID)

			day, err := s.GetJournal(ctx, JournalFilter{Style: models.StyleDay})
			require.NoError(t, err)
			assert.Len(t, day, 2)

			passed, err := s.GetJournal(ctx, JournalFilter{Action: models.DecisionPass, Limit: 1})
			require.NoError(t, err)
			require.Len(t, passed, 1)
			assert.Equal(t, "3", passed[0].ID)
		})
	}
}

func TestJournal_KeptOnClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t, 0) {
		t.Run(name, func(t *testing.T) {
			entry := &models.JournalEntry{ID: "j", CreatedAt: time.Now(), Style: models.StyleDay,
				Action: models.DecisionExecute, Status: models.StatusFullSize, Snapshot: models.NewChecklistState()}
			require.NoError(t, s.SaveJournalEntry(ctx, entry))
			require.NoError(t, s.Clear(ctx))

			got, err := s.GetJournal(ctx, JournalFilter{})
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(fmt.Errorf("initializing schema: %w", sqlite3.Error{Code: sqlite3.ErrBusy})))
	assert.True(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrCantOpen}))
	assert.False(t, IsBusy(errors.ErrQuotaExceeded))
	assert.False(t, IsBusy(nil))
}
