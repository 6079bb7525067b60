// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"trade-checklist/internal/models"
)

// KV is a small string-keyed blob store standing in for browser-style local
// storage. Get returns errors.ErrKeyNotFound for a missing key and Set
// returns errors.ErrQuotaExceeded when the value does not fit.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Journal persists final trade decisions.
type Journal interface {
	SaveJournalEntry(ctx context.Context, entry *models.JournalEntry) error
	GetJournal(ctx context.Context, filter JournalFilter) ([]models.JournalEntry, error)
}

// DataStore is the full local store.
type DataStore interface {
	KV
	Journal

	// Lifecycle
	Close() error
}

// JournalFilter represents filters for querying journal entries.
type JournalFilter struct {
	Style     models.TradingStyle
	Action    models.DecisionAction
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

func (f JournalFilter) matches(e *models.JournalEntry) bool {
	if f.Style != "" && e.Style != f.Style {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.StartDate.IsZero() && e.CreatedAt.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && e.CreatedAt.After(f.EndDate) {
		return false
	}
	return true
}
