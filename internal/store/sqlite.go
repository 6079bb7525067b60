package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"trade-checklist/internal/errors"
	"trade-checklist/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.Mutex
	quota int
}

// NewSQLiteStore creates a new SQLite-based data store. quota caps the total
// bytes held in the kv table; zero disables the cap.
func NewSQLiteStore(dbPath string, quota int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single-user tool: one writer is enough.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:    db,
		quota: quota,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// IsBusy reports whether err means another connection holds the database lock.
func IsBusy(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}
	return false
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Local storage entries
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Final trade decisions
	CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		style TEXT NOT NULL,
		action TEXT NOT NULL,
		status TEXT NOT NULL,
		position_size INTEGER NOT NULL,
		reason TEXT,
		notes TEXT,
		higher_tf TEXT,
		mid_tf TEXT,
		lower_tf TEXT,
		snapshot TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_created ON journal(created_at);
	CREATE INDEX IF NOT EXISTS idx_journal_style ON journal(style);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Local Storage Methods
// ============================================================================

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, errors.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("get", key, err)
	}
	return value, nil
}

// Set stores value under key, enforcing the quota.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("set", key, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if s.quota > 0 {
		var used int64
		err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM kv WHERE key <> ?`, key).Scan(&used)
		if err != nil {
			return errors.NewStorageError("set", key, err)
		}
		if used+int64(len(key)+len(value)) > int64(s.quota) {
			return errors.NewStorageError("set", key, errors.ErrQuotaExceeded)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return errors.NewStorageError("set", key, err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("set", key, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.NewStorageError("delete", key, err)
	}
	return nil
}

// Clear removes every local storage entry. The journal is kept.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return errors.NewStorageError("clear", "", err)
	}
	return nil
}

// ============================================================================
// Journal Methods
// ============================================================================

// SaveJournalEntry saves a decision to the journal.
func (s *SQLiteStore) SaveJournalEntry(ctx context.Context, entry *models.JournalEntry) error {
	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal (id, created_at, style, action, status, position_size, reason, notes, higher_tf, mid_tf, lower_tf, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.CreatedAt.UTC(), entry.Style, entry.Action, entry.Status, entry.PositionSize, entry.Reason, entry.Notes,
		entry.Timeframes.Higher, entry.Timeframes.Mid, entry.Timeframes.Lower, string(snapshot))
	if err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return nil
}

// GetJournal retrieves journal entries, newest first.
func (s *SQLiteStore) GetJournal(ctx context.Context, filter JournalFilter) ([]models.JournalEntry, error) {
	query := "SELECT id, created_at, style, action, status, position_size, reason, notes, higher_tf, mid_tf, lower_tf, snapshot FROM journal WHERE 1=1"
	args := []interface{}{}

	if filter.Style != "" {
		query += " AND style = ?"
		args = append(args, filter.Style)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate.UTC())
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var reason, notes, higher, mid, lower sql.NullString
		var snapshot string
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Style, &e.Action, &e.Status, &e.PositionSize,
			&reason, &notes, &higher, &mid, &lower, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Reason = reason.String
		e.Notes = notes.String
		e.Timeframes = models.TimeframeCodes{Higher: higher.String, Mid: mid.String, Lower: lower.String}
		if err := json.Unmarshal([]byte(snapshot), &e.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal: %w", err)
	}

	return entries, nil
}
