package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Callback handles one delivered event. It runs synchronously inside Emit;
// a panicking callback is recovered, logged, and does not stop delivery to
// the remaining callbacks.
type Callback func(Event)

// Bus fans events out to subscribers keyed by (event type, listener id).
// It is an explicitly constructed instance, not package state, so tests and
// embedded views can run isolated buses.
//
// Delivery is synchronous: every callback registered at the moment Emit is
// called runs before Emit returns, in the calling goroutine. A missed event
// is lost; consumers treat cached data as possibly stale until the next
// explicit read, never as a changelog.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type]map[string]Callback
	logger *zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[Type]map[string]Callback),
		logger: logger,
	}
}

// Subscribe registers fn under (eventType, listenerID). Re-subscribing with
// the same pair replaces the previous callback, so a remounted view never
// receives duplicate invocations through a stale closure.
func (b *Bus) Subscribe(eventType Type, listenerID string, fn Callback) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners, ok := b.subs[eventType]
	if !ok {
		listeners = make(map[string]Callback)
		b.subs[eventType] = listeners
	}
	if _, replaced := listeners[listenerID]; replaced {
		b.logger.Debug().
			Str("event_type", string(eventType)).
			Str("listener_id", listenerID).
			Msg("Subscription replaced")
	}
	listeners[listenerID] = fn
}

// Unsubscribe removes one registration. No-op if absent.
func (b *Bus) Unsubscribe(eventType Type, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners, ok := b.subs[eventType]
	if !ok {
		return
	}
	delete(listeners, listenerID)
	if len(listeners) == 0 {
		delete(b.subs, eventType)
	}
}

// UnsubscribeAll removes every registration for listenerID across all event
// types. Views that subscribed to several types under one identity call this
// on unmount so no dangling closures remain.
func (b *Bus) UnsubscribeAll(listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, listeners := range b.subs {
		delete(listeners, listenerID)
		if len(listeners) == 0 {
			delete(b.subs, eventType)
		}
	}
}

// Publish delivers e to every callback registered for e.Type. The callback
// set is snapshotted first, so subscribing or unsubscribing from inside a
// callback affects only later emits. Panics are isolated per callback.
func (b *Bus) Publish(e Event) {
	if e.Metadata.Timestamp.IsZero() {
		e.Metadata.Timestamp = time.Now()
	}

	b.mu.RLock()
	listeners := b.subs[e.Type]
	snapshot := make([]Callback, 0, len(listeners))
	for _, fn := range listeners {
		snapshot = append(snapshot, fn)
	}
	b.mu.RUnlock()

	for _, fn := range snapshot {
		b.invoke(fn, e)
	}

	b.logger.Debug().
		Str("event_type", string(e.Type)).
		Str("origin", string(e.Origin)).
		Int("subscribers", len(snapshot)).
		Msg("Event published")
}

// Emit builds an event with the given origin and current timestamp and
// publishes it. Convenience over Publish for callers without metadata.
func (b *Bus) Emit(eventType Type, data any, origin Origin) {
	b.Publish(Event{
		Type:   eventType,
		Data:   data,
		Origin: origin,
	})
}

// invoke runs one callback with panic isolation.
func (b *Bus) invoke(fn Callback, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event_type", string(e.Type)).
				Interface("panic", r).
				Msg("Subscriber callback panicked")
		}
	}()
	fn(e)
}

// Stats returns subscriber counts per event type. Diagnostics only; the
// counts are a snapshot and must not drive control flow.
func (b *Bus) Stats() map[Type]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := make(map[Type]int, len(b.subs))
	for eventType, listeners := range b.subs {
		stats[eventType] = len(listeners)
	}
	return stats
}
