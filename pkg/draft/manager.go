package draft

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/pkg/selection"
)

// Manager owns the draft lifecycle for one logical entity:
// NoDraft -> Dirty -> (saved | discarded | expired) -> NoDraft.
// Edits are debounced before hitting storage; restore happens once on mount;
// save clears the snapshot only after the remote write succeeded. The
// timer funcs are injectable so tests drive the debounce without sleeping.
type Manager struct {
	mu      sync.Mutex
	entity  EntityRef
	store   Store
	horizon time.Duration

	debounce  time.Duration
	dirty     bool
	pending   *Snapshot
	timer     *time.Timer
	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer

	logger *zerolog.Logger
}

// NewManager creates a manager for one logical entity.
func NewManager(entity EntityRef, store Store, logger *zerolog.Logger) *Manager {
	return &Manager{
		entity:    entity,
		store:     store,
		horizon:   DefaultHorizon,
		debounce:  DefaultDebounce,
		now:       time.Now,
		afterFunc: time.AfterFunc,
		logger:    logger,
	}
}

// Entity returns the logical entity this manager owns.
func (m *Manager) Entity() EntityRef {
	return m.entity
}

// Edit records a meaningful edit. The snapshot is written to storage after
// the debounce window; successive edits within the window coalesce into one
// write carrying the latest state.
func (m *Manager) Edit(formState json.RawMessage, items []selection.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirty = true
	m.pending = &Snapshot{
		Entity:     m.entity,
		FormState:  formState,
		Selection:  items,
		CapturedAt: m.now(),
	}

	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.afterFunc(m.debounce, m.flush)
}

// flush writes the pending snapshot, if any.
func (m *Manager) flush() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	if pending == nil {
		return
	}
	if err := m.store.Put(*pending); err != nil {
		m.logger.Error().Err(err).
			Str("entity", pending.Entity.Key()).
			Msg("Failed to persist draft")
	}
}

// Flush forces any pending snapshot to storage immediately. Called on
// teardown so a closing view does not lose its debounce window.
func (m *Manager) Flush() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()
	m.flush()
}

// Restore reads the persisted snapshot once, on editor mount. It returns
// the snapshot only when it belongs to this manager's entity and is within
// the horizon; an expired or foreign snapshot is deleted (expiry) or
// ignored (foreign entity) and the editor loads fresh server data instead.
func (m *Manager) Restore() (Snapshot, bool) {
	snapshot, ok, err := m.store.Get(m.entity)
	if err != nil {
		m.logger.Error().Err(err).
			Str("entity", m.entity.Key()).
			Msg("Failed to read draft")
		return Snapshot{}, false
	}
	if !ok {
		return Snapshot{}, false
	}
	if !snapshot.Entity.Equal(m.entity) {
		return Snapshot{}, false
	}
	if snapshot.Expired(m.now(), m.horizon) {
		// Stale drafts are silently discarded, not an error.
		_ = m.store.Delete(m.entity)
		m.logger.Debug().
			Str("entity", m.entity.Key()).
			Time("captured_at", snapshot.CapturedAt).
			Msg("Expired draft discarded")
		return Snapshot{}, false
	}

	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
	return snapshot, true
}

// SaveSucceeded clears the snapshot after the remote write went through.
// Callers must not invoke this on a failed save: the snapshot stays intact
// so no edit is lost.
func (m *Manager) SaveSucceeded() error {
	m.clearPending()
	if err := m.store.Delete(m.entity); err != nil {
		return err
	}
	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
	return nil
}

// Discard clears the snapshot immediately on explicit, user-confirmed
// discard, regardless of any save outcome.
func (m *Manager) Discard() error {
	m.clearPending()
	if err := m.store.Delete(m.entity); err != nil {
		return err
	}
	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
	return nil
}

// HasUnsavedChanges reports whether a dirty draft exists. The consuming
// view uses this to block navigation with a save/discard/cancel prompt;
// the manager only answers the question.
func (m *Manager) HasUnsavedChanges() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Close cancels any pending debounce timer without writing. Used when the
// consuming view unmounts after an explicit save or discard.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = nil
}

func (m *Manager) clearPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = nil
}

// SetHorizon overrides the expiry horizon. Primarily for tests.
func (m *Manager) SetHorizon(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.horizon = d
}

// SetDebounce overrides the debounce window. Primarily for tests.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debounce = d
}

// SetClock overrides the time source. Primarily for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
