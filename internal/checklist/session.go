package checklist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trade-checklist/internal/errors"
	"trade-checklist/internal/logging"
	"trade-checklist/internal/models"
	"trade-checklist/internal/persist"
	"trade-checklist/internal/store"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	Options      Options
	Expiry       time.Duration
	Debounce     time.Duration
	DefaultStyle models.TradingStyle
}

// DefaultSessionConfig returns the standard session configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Options:  DefaultOptions(),
		Expiry:   persist.DefaultExpiry,
		Debounce: 500 * time.Millisecond,
	}
}

// Session binds a Machine to local storage. Edits are saved after a quiet
// period; navigation, resets and decisions are saved at once. Storage
// failures are logged and reported to the error handler but never undo a
// transition. A Session is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	id       string
	cfg      SessionConfig
	machine  *Machine
	adapter  *persist.Adapter
	journal  store.Journal
	debounce *persist.Debouncer
	logger   zerolog.Logger
	onError  atomic.Pointer[func(error)]
	rev      uint64

	saveMu   sync.Mutex
	savedRev uint64
}

// NewSession creates a session over ds. Call Start to pick up saved state.
func NewSession(ds store.DataStore, cfg SessionConfig, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	logger = logging.WithSession(logger, id)
	return &Session{
		id:       id,
		cfg:      cfg,
		machine:  NewMachine(cfg.Options, logger),
		adapter:  persist.NewAdapter(ds, cfg.Expiry, logger),
		journal:  ds,
		debounce: persist.NewDebouncer(cfg.Debounce),
		logger:   logging.WithComponent(logger, "session"),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Adapter returns the persistence adapter backing the session.
func (s *Session) Adapter() *persist.Adapter {
	return s.adapter
}

// OnStorageError sets a handler called with every failed save. The handler
// runs with no session lock held and may call back into the Session.
func (s *Session) OnStorageError(fn func(error)) {
	s.onError.Store(&fn)
}

// Start restores the saved checklist. Without one it selects the saved
// style preference, then the configured default style. It reports whether
// a checklist was restored.
func (s *Session) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state := s.adapter.Load(ctx); state != nil {
		_ = s.machine.Dispatch(RestoreState{State: *state})
		s.logger.Info().
			Str("style", string(state.TradingStyle)).
			Str("step", string(state.CurrentStep)).
			Msg("Restored saved checklist")
		return true
	}

	style := s.cfg.DefaultStyle
	if pref := s.adapter.LoadStylePreference(ctx); pref != nil {
		style = pref.Style
	}
	if style != "" {
		if err := s.machine.Dispatch(SelectStyle{Style: style}); err != nil {
			s.logger.Warn().Err(err).Str("style", string(style)).Msg("Ignoring saved style")
		}
	}
	return false
}

// State returns a copy of the current state.
func (s *Session) State() models.ChecklistState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Result returns the latest validation result of a stage.
func (s *Session) Result(stage models.Stage) (models.ValidationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Result(stage)
}

// Recommendation returns the overall recommendation once every stage has
// been validated.
func (s *Session) Recommendation() (models.Recommendation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Recommendation()
}

// Unlocked reports whether a step may be entered.
func (s *Session) Unlocked(step models.Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Unlocked(step)
}

// Dispatch applies an action and persists the result.
func (s *Session) Dispatch(ctx context.Context, a Action) error {
	_, err := s.dispatch(ctx, a)
	return err
}

// Execute records a decision to take the trade and returns its journal entry.
func (s *Session) Execute(ctx context.Context, notes string) (*models.JournalEntry, error) {
	return s.dispatch(ctx, ExecuteTrade{Notes: notes})
}

// Pass records a decision to skip the trade and returns its journal entry.
func (s *Session) Pass(ctx context.Context, reason string) (*models.JournalEntry, error) {
	return s.dispatch(ctx, PassTrade{Reason: reason})
}

// Flush writes any pending save now.
func (s *Session) Flush() bool {
	return s.debounce.Flush()
}

// Close flushes pending saves.
func (s *Session) Close() error {
	s.Flush()
	return nil
}

func (s *Session) dispatch(ctx context.Context, a Action) (*models.JournalEntry, error) {
	entry, failed, err := s.apply(ctx, a)
	for _, ferr := range failed {
		s.report(ferr)
	}
	return entry, err
}

// apply runs an action under the session lock. Storage failures are returned
// so they can be reported after the lock is released.
func (s *Session) apply(ctx context.Context, a Action) (*models.JournalEntry, []error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Dispatch(a); err != nil {
		return nil, nil, err
	}

	var failed []error
	switch act := a.(type) {
	case SelectStyle:
		cfg := s.machine.state.TimeframeConfig
		failed = appendErr(failed, s.adapter.SaveStylePreference(ctx, act.Style, *cfg))
	case ResetToStyleSelection:
		return nil, appendErr(failed, s.clear(ctx, s.adapter.ClearAll)), nil
	case ExecuteTrade, PassTrade:
		return s.finish(ctx)
	}

	return nil, appendErr(failed, s.persist(ctx, a.immediate())), nil
}

// persist saves a copy of the current state, now or after the quiet period.
// Only an immediate save returns its error; a debounced one reports its own.
func (s *Session) persist(ctx context.Context, now bool) error {
	state := s.machine.State()
	s.rev++
	rev := s.rev

	if now {
		s.debounce.Cancel()
		return s.write(ctx, rev, state)
	}
	s.debounce.Schedule(func() {
		s.report(s.write(context.Background(), rev, state))
	})
	return nil
}

// write saves state unless a newer revision has already been written.
func (s *Session) write(ctx context.Context, rev uint64, state models.ChecklistState) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if rev < s.savedRev {
		return nil
	}
	if err := s.adapter.Save(ctx, state); err != nil {
		return err
	}
	s.savedRev = rev
	return nil
}

// finish journals the decision and starts a fresh checklist for the same style.
func (s *Session) finish(ctx context.Context) (*models.JournalEntry, []error, error) {
	state := s.machine.State()
	decision := state.FinalDecision
	cfg := state.TimeframeConfig

	entry := &models.JournalEntry{
		ID:           uuid.NewString(),
		CreatedAt:    decision.DecidedAt,
		Style:        state.TradingStyle,
		Action:       decision.Action,
		Status:       decision.Recommendation.Status,
		PositionSize: decision.Recommendation.Recommendation,
		Reason:       decision.Recommendation.Reason,
		Notes:        decision.Notes,
		Timeframes: models.TimeframeCodes{
			Higher: cfg.Higher.Code,
			Mid:    cfg.Mid.Code,
			Lower:  cfg.Lower.Code,
		},
		Snapshot: state,
	}

	if err := s.journal.SaveJournalEntry(ctx, entry); err != nil {
		// Keep the decided checklist so the decision can be retried.
		failed := appendErr(nil, s.persist(ctx, true))
		return nil, failed, errors.Wrap(err, "saving journal entry")
	}
	logging.LogDecision(s.logger, string(entry.Style), string(entry.Action), entry.PositionSize, entry.Reason)

	failed := appendErr(nil, s.clear(ctx, s.adapter.Clear))
	_ = s.machine.Dispatch(ResetChecklist{})
	return entry, failed, nil
}

// clear drops pending and in-flight saves, then removes stored state.
func (s *Session) clear(ctx context.Context, clearFn func(context.Context) error) error {
	s.debounce.Cancel()
	s.rev++

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.savedRev = s.rev
	return clearFn(ctx)
}

// report logs a storage failure and passes it to the error handler. It must
// be called with no session lock held.
func (s *Session) report(err error) {
	if err == nil {
		return
	}
	s.logger.Error().Err(err).Msg("Failed to persist checklist")
	if fn := s.onError.Load(); fn != nil {
		(*fn)(err)
	}
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}
