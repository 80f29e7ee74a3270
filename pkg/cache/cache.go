// Package cache provides the in-memory partition cache backing the
// invalidation router. It uses patrickmn/go-cache for TTL-based expiry, so
// data goes stale on its own even if an invalidation event is lost.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/pkg/invalidation"
)

// DefaultTTL is how long a partition stays fresh without invalidation.
const DefaultTTL = 5 * time.Minute

// RefetchFunc is called after a partition is invalidated so the view layer
// can schedule a background refetch. It must be idempotent and safe to
// trigger twice: a local write and a racing remote event for the same
// resource will both invalidate the same partition.
type RefetchFunc func(invalidation.Partition)

// Store caches one value (typically the last fetched list) per partition.
type Store struct {
	store   *gocache.Cache
	refetch RefetchFunc
	logger  *zerolog.Logger
}

// New creates a partition store with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration, logger *zerolog.Logger) *Store {
	return &Store{
		store:  gocache.New(defaultTTL, cleanupInterval),
		logger: logger,
	}
}

// OnRefetch registers the background refetch hook. Pass nil to disable.
func (s *Store) OnRefetch(fn RefetchFunc) {
	s.refetch = fn
}

// Get retrieves the cached value for a partition.
func (s *Store) Get(p invalidation.Partition) (any, bool) {
	return s.store.Get(string(p))
}

// Set stores a value for a partition with the default TTL.
func (s *Store) Set(p invalidation.Partition, value any) {
	s.store.Set(string(p), value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value for a partition with a custom TTL.
func (s *Store) SetWithTTL(p invalidation.Partition, value any, ttl time.Duration) {
	s.store.Set(string(p), value, ttl)
}

// Invalidate drops the partition and triggers the refetch hook. It
// satisfies invalidation.Invalidator and is idempotent: dropping an absent
// partition is a no-op and the hook owns its own dedupe.
func (s *Store) Invalidate(p invalidation.Partition) {
	s.store.Delete(string(p))
	if s.refetch != nil {
		s.refetch(p)
	}
	s.logger.Debug().
		Str("partition", string(p)).
		Msg("Partition invalidated")
}

// Clear removes every partition.
func (s *Store) Clear() {
	s.store.Flush()
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount int `json:"item_count"`
}

// GetStats returns current cache statistics.
func (s *Store) GetStats() Stats {
	return Stats{
		ItemCount: s.store.ItemCount(),
	}
}
