package events

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestBus() *Bus {
	logger := zerolog.Nop()
	return NewBus(&logger)
}

// TestBus_SubscribeEmit tests that a subscribed callback runs exactly once
// per emit of its event type.
func TestBus_SubscribeEmit(t *testing.T) {
	b := newTestBus()

	calls := 0
	b.Subscribe(EstimateCreated, "view-1", func(Event) { calls++ })

	b.Emit(EstimateCreated, nil, OriginLocal)
	b.Emit(EstimateCreated, nil, OriginLocal)

	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

// TestBus_EmitOtherType tests that callbacks do not fire for other event types.
func TestBus_EmitOtherType(t *testing.T) {
	b := newTestBus()

	calls := 0
	b.Subscribe(EstimateCreated, "view-1", func(Event) { calls++ })

	b.Emit(ProjectCreated, nil, OriginLocal)

	if calls != 0 {
		t.Errorf("expected 0 calls, got %d", calls)
	}
}

// TestBus_ResubscribeReplaces tests that re-subscribing the same
// (type, listener) pair replaces the callback instead of duplicating it.
func TestBus_ResubscribeReplaces(t *testing.T) {
	b := newTestBus()

	first := 0
	second := 0
	b.Subscribe(EstimateUpdated, "view-1", func(Event) { first++ })
	b.Subscribe(EstimateUpdated, "view-1", func(Event) { second++ })

	b.Emit(EstimateUpdated, nil, OriginLocal)

	if first != 0 {
		t.Errorf("stale callback invoked %d times", first)
	}
	if second != 1 {
		t.Errorf("expected replacement callback to run once, got %d", second)
	}
}

// TestBus_Unsubscribe tests that an unsubscribed callback never runs again.
func TestBus_Unsubscribe(t *testing.T) {
	b := newTestBus()

	calls := 0
	b.Subscribe(EstimateDeleted, "view-1", func(Event) { calls++ })
	b.Emit(EstimateDeleted, nil, OriginLocal)
	b.Unsubscribe(EstimateDeleted, "view-1")
	b.Emit(EstimateDeleted, nil, OriginLocal)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	// Unsubscribing something absent is a no-op.
	b.Unsubscribe(EstimateDeleted, "view-1")
	b.Unsubscribe(ProjectCreated, "never-subscribed")
}

// TestBus_UnsubscribeAll tests teardown of one listener identity across
// several event types.
func TestBus_UnsubscribeAll(t *testing.T) {
	b := newTestBus()

	calls := 0
	other := 0
	b.Subscribe(EstimateCreated, "view-1", func(Event) { calls++ })
	b.Subscribe(EstimateUpdated, "view-1", func(Event) { calls++ })
	b.Subscribe(ProjectCreated, "view-1", func(Event) { calls++ })
	b.Subscribe(EstimateCreated, "view-2", func(Event) { other++ })

	b.UnsubscribeAll("view-1")

	b.Emit(EstimateCreated, nil, OriginLocal)
	b.Emit(EstimateUpdated, nil, OriginLocal)
	b.Emit(ProjectCreated, nil, OriginLocal)

	if calls != 0 {
		t.Errorf("expected 0 calls after UnsubscribeAll, got %d", calls)
	}
	if other != 1 {
		t.Errorf("unrelated listener affected: expected 1 call, got %d", other)
	}
}

// TestBus_PanicIsolation tests that a panicking callback does not prevent an
// independently registered callback from running, and does not propagate to
// the emitter.
func TestBus_PanicIsolation(t *testing.T) {
	b := newTestBus()

	survived := 0
	b.Subscribe(EstimateCreated, "bad", func(Event) { panic("subscriber bug") })
	b.Subscribe(EstimateCreated, "good", func(Event) { survived++ })

	b.Emit(EstimateCreated, nil, OriginLocal)

	if survived != 1 {
		t.Errorf("expected surviving callback to run once, got %d", survived)
	}
}

// TestBus_UnsubscribeDuringEmit tests that removing a subscription from
// inside a callback of the same event type does not throw or skip
// unrelated callbacks in the same emit.
func TestBus_UnsubscribeDuringEmit(t *testing.T) {
	b := newTestBus()

	ran := map[string]int{}
	b.Subscribe(EstimateCreated, "a", func(Event) {
		ran["a"]++
		b.Unsubscribe(EstimateCreated, "b")
		b.UnsubscribeAll("a")
	})
	b.Subscribe(EstimateCreated, "b", func(Event) { ran["b"]++ })
	b.Subscribe(EstimateCreated, "c", func(Event) { ran["c"]++ })

	b.Emit(EstimateCreated, nil, OriginLocal)

	// The snapshot taken at emit time still runs every callback once.
	for _, id := range []string{"a", "b", "c"} {
		if ran[id] != 1 {
			t.Errorf("callback %q ran %d times during first emit", id, ran[id])
		}
	}

	b.Emit(EstimateCreated, nil, OriginLocal)

	if ran["a"] != 1 || ran["b"] != 1 {
		t.Errorf("unsubscribed callbacks ran again: %v", ran)
	}
	if ran["c"] != 2 {
		t.Errorf("callback c expected 2 runs, got %d", ran["c"])
	}
}

// TestBus_ReentrantEmit tests that a callback may itself emit.
func TestBus_ReentrantEmit(t *testing.T) {
	b := newTestBus()

	projectCalls := 0
	b.Subscribe(EstimateCreated, "chain", func(Event) {
		b.Emit(ProjectUpdated, nil, OriginLocal)
	})
	b.Subscribe(ProjectUpdated, "view", func(Event) { projectCalls++ })

	b.Emit(EstimateCreated, nil, OriginLocal)

	if projectCalls != 1 {
		t.Errorf("expected nested emit to deliver once, got %d", projectCalls)
	}
}

// TestBus_OriginAndTimestamp tests that Emit stamps origin and a timestamp.
func TestBus_OriginAndTimestamp(t *testing.T) {
	b := newTestBus()

	var got Event
	b.Subscribe(EstimateCreated, "view", func(e Event) { got = e })

	b.Emit(EstimateCreated, map[string]any{"estimate_id": 7}, OriginRemote)

	if got.Origin != OriginRemote {
		t.Errorf("expected origin remote, got %q", got.Origin)
	}
	if got.Metadata.Timestamp.IsZero() {
		t.Error("expected a non-zero timestamp")
	}
}

// TestBus_Stats tests subscriber counts per type.
func TestBus_Stats(t *testing.T) {
	b := newTestBus()

	b.Subscribe(EstimateCreated, "a", func(Event) {})
	b.Subscribe(EstimateCreated, "b", func(Event) {})
	b.Subscribe(ProjectCreated, "a", func(Event) {})

	stats := b.Stats()
	if stats[EstimateCreated] != 2 {
		t.Errorf("expected 2 estimate.created subscribers, got %d", stats[EstimateCreated])
	}
	if stats[ProjectCreated] != 1 {
		t.Errorf("expected 1 project.created subscriber, got %d", stats[ProjectCreated])
	}

	b.UnsubscribeAll("a")
	b.UnsubscribeAll("b")
	if len(b.Stats()) != 0 {
		t.Errorf("expected empty stats after teardown, got %v", b.Stats())
	}
}

// TestKnown tests the type registry.
func TestKnown(t *testing.T) {
	for _, typ := range Registry {
		if !Known(typ) {
			t.Errorf("registry type %q not reported as known", typ)
		}
	}
	if Known(Type("material.created")) {
		t.Error("unknown type reported as known")
	}
}
