// Package selection accumulates in-progress work-item selections across the
// multi-step "add works to estimate" flow. Different navigation paths (the
// catalog screen, a category drill-down, the mobile picker) each contribute
// partial lists; this package merges them per scope without ever duplicating
// a work type.
//
// All operations are pure: they take a Store and return a new one, leaving
// the input untouched. The view layer owns the single current Store value
// and all re-render scheduling.
package selection

import "github.com/buildmetric/costmap/pkg/smeta"

// Scope keys one accumulation: a screen plus the estimate being edited.
// EstimateID 0 means "not yet persisted" (a new estimate); that scope must
// be cleared explicitly once the estimate is created, or the next new-
// estimate flow would inherit its items.
type Scope struct {
	Screen     string
	EstimateID int
}

// NewEstimateScope is the scope for a not-yet-persisted estimate on the
// given screen.
func NewEstimateScope(screen string) Scope {
	return Scope{Screen: screen}
}

// EstimateScope is the scope for an existing estimate on the given screen.
func EstimateScope(screen string, estimateID int) Scope {
	return Scope{Screen: screen, EstimateID: estimateID}
}

// Item is one accumulated work item. Identity is WorkTypeID, stable across
// merges regardless of list position.
type Item struct {
	WorkTypeID      int
	WorkName        string
	Unit            string
	Quantity        float64
	UnitCostPrice   float64
	UnitClientPrice float64
	TotalCost       float64
	TotalClient     float64
}

// FromWorkType builds an Item from a catalog entry with the given quantity.
func FromWorkType(w smeta.WorkType, quantity float64) Item {
	return normalize(Item{
		WorkTypeID:      w.WorkTypeID,
		WorkName:        w.WorkName,
		Unit:            w.UnitOfMeasurement,
		Quantity:        quantity,
		UnitCostPrice:   w.Prices.CostPrice,
		UnitClientPrice: w.Prices.ClientPrice,
	})
}

// Store maps scopes to their accumulated items. The zero value is usable.
type Store map[Scope][]Item

// Add normalizes items and merges them into the scope's list by work type
// id, keeping the existing entry on collision. A duplicate selection is an
// "already added" no-op surfaced to the user, never a silent overwrite.
func Add(store Store, scope Scope, items []Item) Store {
	incoming := normalizeAll(items)
	if len(incoming) == 0 {
		return store
	}

	existing := store[scope]
	merged := make([]Item, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	seen := make(map[int]bool, len(existing))
	for _, item := range existing {
		seen[item.WorkTypeID] = true
	}
	for _, item := range incoming {
		if seen[item.WorkTypeID] {
			continue
		}
		seen[item.WorkTypeID] = true
		merged = append(merged, item)
	}

	return withScope(store, scope, merged)
}

// Replace sets the scope's list to exactly the normalized incoming items.
// Used after removals and quantity edits, where the caller already computed
// the authoritative remaining set; merging would resurrect removed items.
func Replace(store Store, scope Scope, items []Item) Store {
	return withScope(store, scope, normalizeAll(items))
}

// Clear empties the given scope only.
func Clear(store Store, scope Scope) Store {
	if _, ok := store[scope]; !ok {
		return store
	}
	next := cloneStore(store)
	delete(next, scope)
	return next
}

// Read returns the scope's items, or an empty list for an unknown scope.
// The returned slice is a copy; mutating it does not affect the store.
func Read(store Store, scope Scope) []Item {
	items := store[scope]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Totals sums the derived totals for a scope.
func Totals(store Store, scope Scope) (cost, client float64) {
	for _, item := range store[scope] {
		cost += item.TotalCost
		client += item.TotalClient
	}
	return cost, client
}

// normalizeAll canonicalizes incoming items, dropping any without a
// resolvable identity key: a synthetic key could not be deduplicated on a
// later merge.
func normalizeAll(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.WorkTypeID == 0 {
			continue
		}
		out = append(out, normalize(item))
	}
	return out
}

func normalize(item Item) Item {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	item.TotalCost = item.Quantity * item.UnitCostPrice
	item.TotalClient = item.Quantity * item.UnitClientPrice
	return item
}

func withScope(store Store, scope Scope, items []Item) Store {
	next := cloneStore(store)
	next[scope] = items
	return next
}

func cloneStore(store Store) Store {
	next := make(Store, len(store)+1)
	for scope, items := range store {
		next[scope] = items
	}
	return next
}
