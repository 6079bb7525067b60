package store

import (
	"context"
	"sort"
	"sync"

	"trade-checklist/internal/errors"
	"trade-checklist/internal/models"
)

// MemoryStore is an in-process DataStore. It backs sessions when the
// database cannot be opened and is used in tests.
type MemoryStore struct {
	mu      sync.Mutex
	kv      map[string][]byte
	journal []models.JournalEntry
	quota   int
}

// NewMemoryStore creates an empty MemoryStore. quota caps the total bytes of
// keys and values; zero disables the cap.
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{
		kv:    make(map[string][]byte),
		quota: quota,
	}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.kv[key]
	if !ok {
		return nil, errors.ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores value under key, enforcing the quota.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		used := 0
		for k, v := range m.kv {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > m.quota {
			return errors.NewStorageError("set", key, errors.ErrQuotaExceeded)
		}
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.kv[key] = v
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

// Clear removes every local storage entry. The journal is kept.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv = make(map[string][]byte)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.kv))
	for k := range m.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SaveJournalEntry saves a decision to the journal.
func (m *MemoryStore) SaveJournalEntry(_ context.Context, entry *models.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := *entry
	e.Snapshot = entry.Snapshot.Clone()
	m.journal = append(m.journal, e)
	return nil
}

// GetJournal retrieves journal entries, newest first.
func (m *MemoryStore) GetJournal(_ context.Context, filter JournalFilter) ([]models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.JournalEntry
	for i := range m.journal {
		if filter.matches(&m.journal[i]) {
			out = append(out, m.journal[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
