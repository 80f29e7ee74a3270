// Package draft durably snapshots an in-progress estimate edit so a closed
// tab or crashed session can resume where it left off. Snapshots are keyed
// per logical entity, debounced on write, and expire after a fixed horizon.
package draft

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/buildmetric/costmap/pkg/selection"
)

// DefaultHorizon is how long a snapshot stays restorable.
const DefaultHorizon = 24 * time.Hour

// DefaultDebounce is how long after the last edit the snapshot is written.
const DefaultDebounce = 2 * time.Second

// Kind distinguishes a draft for a not-yet-created estimate from one for an
// existing estimate.
type Kind string

// Entity kinds.
const (
	KindNew      Kind = "new"
	KindExisting Kind = "existing"
)

// EntityRef identifies the logical entity a draft belongs to. Using a
// structured key instead of formatted strings keeps "new" drafts and
// existing-estimate drafts from ever colliding.
type EntityRef struct {
	Kind Kind `json:"kind"`
	ID   int  `json:"id,omitempty"`
}

// NewEntity is the ref for a not-yet-persisted estimate.
func NewEntity() EntityRef {
	return EntityRef{Kind: KindNew}
}

// ExistingEntity is the ref for an existing estimate.
func ExistingEntity(id int) EntityRef {
	return EntityRef{Kind: KindExisting, ID: id}
}

// Equal reports whether two refs identify the same logical entity.
func (e EntityRef) Equal(other EntityRef) bool {
	return e.Kind == other.Kind && e.ID == other.ID
}

// Key returns the storage key for this entity.
func (e EntityRef) Key() string {
	if e.Kind == KindNew {
		return "draft:new"
	}
	return fmt.Sprintf("draft:%d", e.ID)
}

// Snapshot is one persisted draft.
type Snapshot struct {
	Entity     EntityRef        `json:"entity"`
	FormState  json.RawMessage  `json:"form_state,omitempty"`
	Selection  []selection.Item `json:"selection,omitempty"`
	CapturedAt time.Time        `json:"captured_at"`
}

// Expired reports whether the snapshot is past the horizon at the given time.
func (s Snapshot) Expired(now time.Time, horizon time.Duration) bool {
	return now.Sub(s.CapturedAt) > horizon
}

// Store is the durable key-value storage behind the manager: synchronous,
// non-transactional, small values. Two editors open on the same entity race
// on its key with last-write-wins; single-editor-per-entity is assumed, not
// enforced.
type Store interface {
	// Put saves or replaces the snapshot for its entity.
	Put(s Snapshot) error

	// Get returns the snapshot for the entity, reporting whether one exists.
	Get(e EntityRef) (Snapshot, bool, error)

	// Delete removes the entity's snapshot. Absent is not an error.
	Delete(e EntityRef) error

	// List returns every stored snapshot.
	List() ([]Snapshot, error)
}
