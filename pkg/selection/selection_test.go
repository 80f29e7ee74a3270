package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmetric/costmap/pkg/smeta"
)

func item(id int, qty float64) Item {
	return Item{WorkTypeID: id, Quantity: qty, UnitCostPrice: 10, UnitClientPrice: 15}
}

func TestAdd_FirstWriteWinsOnCollision(t *testing.T) {
	scope := EstimateScope("estimate-editor", 5)
	store := Add(Store{}, scope, []Item{item(1, 1)})

	store = Add(store, scope, []Item{item(1, 5), item(2, 2)})

	got := Read(store, scope)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].WorkTypeID)
	assert.Equal(t, 1.0, got[0].Quantity, "existing entry wins on key collision")
	assert.Equal(t, 2, got[1].WorkTypeID)
	assert.Equal(t, 2.0, got[1].Quantity)
}

func TestReplace_IsAuthoritative(t *testing.T) {
	scope := EstimateScope("estimate-editor", 5)
	store := Add(Store{}, scope, []Item{item(1, 1), item(2, 2)})

	store = Replace(store, scope, []Item{item(1, 5), item(2, 2)})

	got := Read(store, scope)
	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].Quantity, "replace takes the incoming values")
}

func TestReplace_AfterRemovalDoesNotResurrect(t *testing.T) {
	scope := NewEstimateScope("estimate-editor")
	store := Add(Store{}, scope, []Item{item(1, 1), item(2, 2)})

	// The view removed work type 1 and replaces with the remaining set.
	store = Replace(store, scope, []Item{item(2, 2)})

	got := Read(store, scope)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].WorkTypeID)
}

func TestAdd_DropsItemsWithoutIdentity(t *testing.T) {
	scope := NewEstimateScope("work-picker")
	store := Add(Store{}, scope, []Item{item(0, 3), item(7, 1)})

	got := Read(store, scope)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].WorkTypeID)
}

func TestAdd_NormalizesQuantityAndTotals(t *testing.T) {
	scope := NewEstimateScope("work-picker")
	store := Add(Store{}, scope, []Item{
		{WorkTypeID: 3, Quantity: 0, UnitCostPrice: 100, UnitClientPrice: 150},
	})

	got := Read(store, scope)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Quantity, "zero quantity defaults to 1")
	assert.Equal(t, 100.0, got[0].TotalCost)
	assert.Equal(t, 150.0, got[0].TotalClient)
}

func TestScopes_DoNotLeak(t *testing.T) {
	desktop := EstimateScope("estimate-editor", 5)
	mobile := EstimateScope("mobile-editor", 5)
	unsaved := NewEstimateScope("estimate-editor")

	store := Add(Store{}, desktop, []Item{item(1, 1)})
	store = Add(store, mobile, []Item{item(2, 1)})
	store = Add(store, unsaved, []Item{item(3, 1)})

	assert.Len(t, Read(store, desktop), 1)
	assert.Len(t, Read(store, mobile), 1)
	assert.Len(t, Read(store, unsaved), 1)

	store = Clear(store, desktop)
	assert.Empty(t, Read(store, desktop))
	assert.Len(t, Read(store, mobile), 1, "clearing one scope leaves others")
	assert.Len(t, Read(store, unsaved), 1)
}

func TestRead_UnknownScope(t *testing.T) {
	got := Read(Store{}, EstimateScope("nowhere", 99))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOperations_ArePure(t *testing.T) {
	scope := NewEstimateScope("estimate-editor")
	original := Add(Store{}, scope, []Item{item(1, 1)})

	_ = Add(original, scope, []Item{item(2, 1)})
	_ = Replace(original, scope, []Item{item(3, 1)})
	_ = Clear(original, scope)

	got := Read(original, scope)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].WorkTypeID, "input store must never be mutated")
}

func TestFromWorkType(t *testing.T) {
	w := smeta.WorkType{
		WorkTypeID:        9,
		WorkName:          "Plastering",
		UnitOfMeasurement: "m2",
		Prices:            smeta.WorkPrices{CostPrice: 50, ClientPrice: 80},
	}

	got := FromWorkType(w, 2.5)
	assert.Equal(t, 9, got.WorkTypeID)
	assert.Equal(t, "m2", got.Unit)
	assert.Equal(t, 125.0, got.TotalCost)
	assert.Equal(t, 200.0, got.TotalClient)
}

func TestTotals(t *testing.T) {
	scope := NewEstimateScope("estimate-editor")
	store := Add(Store{}, scope, []Item{item(1, 2), item(2, 3)})

	cost, client := Totals(store, scope)
	assert.Equal(t, 50.0, cost)
	assert.Equal(t, 75.0, client)
}
