// Package events provides the synchronous publish/subscribe bus that keeps
// independently-rendered views consistent with each other and with the
// estimates service. Local writes and server-pushed changes both flow through
// the bus as origin-tagged events; subscribers use the origin to decide
// whether a refetch is needed on top of the cache invalidation that already
// happened.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies a category of change event.
type Type string

// Event types for resource changes and connection lifecycle.
const (
	// Estimate events.
	EstimateCreated Type = "estimate.created"
	EstimateUpdated Type = "estimate.updated"
	EstimateDeleted Type = "estimate.deleted"

	// Project events.
	ProjectCreated Type = "project.created"
	ProjectUpdated Type = "project.updated"
	ProjectDeleted Type = "project.deleted"

	// Work catalog events.
	WorkPriceChanged Type = "work.priceChanged"

	// User events.
	UserUpdated Type = "user.updated"

	// Connection lifecycle events (emitted by the push client).
	ConnectionRestored Type = "system.connectionRestored"
	ConnectionLost     Type = "system.connectionLost"
)

// Registry lists every event type this client understands. Server-pushed
// events outside this list are still delivered (forward compatibility);
// the registry only drives cache routing and diagnostics.
var Registry = []Type{
	EstimateCreated,
	EstimateUpdated,
	EstimateDeleted,
	ProjectCreated,
	ProjectUpdated,
	ProjectDeleted,
	WorkPriceChanged,
	UserUpdated,
	ConnectionRestored,
	ConnectionLost,
}

// Known reports whether t is in the registry.
func Known(t Type) bool {
	switch t {
	case EstimateCreated, EstimateUpdated, EstimateDeleted,
		ProjectCreated, ProjectUpdated, ProjectDeleted,
		WorkPriceChanged, UserUpdated,
		ConnectionRestored, ConnectionLost:
		return true
	}
	return false
}

// Origin tells a subscriber whether this client's own write produced the
// event or another client's did. Every event carries one; consumers that
// refetch on remote events must not refetch on local ones, or each save
// triggers a redundant self-refresh on top of the cache invalidation.
type Origin string

// Origin values.
const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Source identifies which surface produced an event.
type Source string

// Source values.
const (
	SourceDesktop Source = "desktop"
	SourceMobile  Source = "mobile"
	SourceSSE     Source = "sse"
	SourceTest    Source = "test"
)

// Metadata carries event provenance.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	UserID    string    `json:"user_id,omitempty"`
	UserRole  string    `json:"user_role,omitempty"`
}

// Event is an immutable change notification. Created by the write-path
// notifier (origin local) or the push client (origin remote); never persisted.
type Event struct {
	Type     Type     `json:"type"`
	Data     any      `json:"data"`
	Origin   Origin   `json:"origin"`
	Metadata Metadata `json:"metadata"`
}

// NewListenerID returns a unique listener identity for subscriptions whose
// owner has no natural name (short-lived views, tests).
func NewListenerID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
