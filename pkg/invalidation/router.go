// Package invalidation maps change events to the cached-data partitions they
// make stale. The mapping is a fixed switch over the typed event registry,
// so adding an event type without deciding its partitions is a compile-time
// review item instead of a silent runtime miss.
package invalidation

import (
	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/pkg/events"
)

// Partition names a slice of cached remote data.
type Partition string

// Cache partitions.
const (
	PartitionEstimates Partition = "estimates"
	PartitionProjects  Partition = "projects"
	PartitionWorks     Partition = "works"
	PartitionUsers     Partition = "users"
)

// Invalidator marks one partition stale and may trigger a background
// refetch. It must be idempotent: a local write and a racing remote event
// for the same resource will both route here.
type Invalidator func(Partition)

// PartitionsFor returns the partitions invalidated by an event type.
// Unmapped types (including unknown server-pushed types) return nil.
//
// Project events also invalidate estimates: estimate rows denormalize the
// project name, so a renamed project changes what the estimates list shows.
func PartitionsFor(t events.Type) []Partition {
	switch t {
	case events.EstimateCreated, events.EstimateUpdated, events.EstimateDeleted:
		return []Partition{PartitionEstimates}
	case events.ProjectCreated, events.ProjectUpdated:
		return []Partition{PartitionProjects, PartitionEstimates}
	case events.ProjectDeleted:
		return []Partition{PartitionProjects, PartitionEstimates}
	case events.WorkPriceChanged:
		return []Partition{PartitionWorks}
	case events.UserUpdated:
		return []Partition{PartitionUsers}
	case events.ConnectionRestored:
		// Anything may have changed while the channel was down.
		return []Partition{PartitionEstimates, PartitionProjects, PartitionWorks, PartitionUsers}
	case events.ConnectionLost:
		return nil
	default:
		return nil
	}
}

// Router binds the event-type→partition table to a bus. Invalidation runs
// for every matching emit regardless of origin: the cache must reflect the
// server's last-known state after any completed write, including this
// client's own.
type Router struct {
	bus        *events.Bus
	invalidate Invalidator
	listenerID string
	logger     *zerolog.Logger
}

// NewRouter creates a router that calls invalidate for each mapped
// partition of each published event.
func NewRouter(bus *events.Bus, invalidate Invalidator, logger *zerolog.Logger) *Router {
	return &Router{
		bus:        bus,
		invalidate: invalidate,
		listenerID: "cache-invalidation-router",
		logger:     logger,
	}
}

// Bind subscribes the router to every known event type.
func (r *Router) Bind() {
	for _, t := range events.Registry {
		r.bus.Subscribe(t, r.listenerID, r.handle)
	}
}

// Close removes the router's subscriptions.
func (r *Router) Close() {
	r.bus.UnsubscribeAll(r.listenerID)
}

func (r *Router) handle(e events.Event) {
	partitions := PartitionsFor(e.Type)
	if len(partitions) == 0 {
		return
	}
	for _, p := range partitions {
		r.invalidate(p)
	}
	r.logger.Debug().
		Str("event_type", string(e.Type)).
		Str("origin", string(e.Origin)).
		Int("partitions", len(partitions)).
		Msg("Cache partitions invalidated")
}
