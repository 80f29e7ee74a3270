package costmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmetric/costmap/pkg/draft"
	"github.com/buildmetric/costmap/pkg/events"
	"github.com/buildmetric/costmap/pkg/invalidation"
	"github.com/buildmetric/costmap/pkg/logging"
	"github.com/buildmetric/costmap/pkg/selection"
)

func newTestCostmap(t *testing.T, opts ...Option) Costmap {
	t.Helper()
	opts = append([]Option{
		WithLogger(logging.NewTestLogger(t).Logger),
		WithToken("test-token"),
	}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewWiresSubsystems(t *testing.T) {
	c := newTestCostmap(t)

	assert.NotNil(t, c.Bus())
	assert.NotNil(t, c.Cache())
	assert.NotNil(t, c.API())
	assert.NotNil(t, c.Writer())
	assert.NotNil(t, c.Push())
}

func TestEventsInvalidateCache(t *testing.T) {
	c := newTestCostmap(t)

	c.Cache().Set(invalidation.PartitionEstimates, []string{"cached"})
	_, ok := c.Cache().Get(invalidation.PartitionEstimates)
	require.True(t, ok)

	c.Bus().Emit(events.EstimateUpdated, map[string]any{"estimate_id": 1}, events.OriginRemote)

	_, ok = c.Cache().Get(invalidation.PartitionEstimates)
	assert.False(t, ok, "estimate event must invalidate the estimates partition")
}

func TestSelectionMergeSemantics(t *testing.T) {
	c := newTestCostmap(t)
	scope := selection.EstimateScope("estimate-form", 10)

	c.AddSelection(scope, []selection.Item{{WorkTypeID: 1, Quantity: 1, UnitCostPrice: 100}})
	c.AddSelection(scope, []selection.Item{
		{WorkTypeID: 1, Quantity: 5, UnitCostPrice: 100},
		{WorkTypeID: 2, Quantity: 2, UnitCostPrice: 50},
	})

	got := c.ReadSelection(scope)
	require.Len(t, got, 2)
	assert.Equal(t, float64(1), got[0].Quantity, "existing pick keeps its quantity")
	assert.Equal(t, 2, got[1].WorkTypeID)

	c.ClearSelection(scope)
	assert.Empty(t, c.ReadSelection(scope))
}

func TestDraftsReturnsSameManagerPerEntity(t *testing.T) {
	c := newTestCostmap(t)

	a := c.Drafts(draft.ExistingEntity(7))
	b := c.Drafts(draft.ExistingEntity(7))
	other := c.Drafts(draft.NewEntity())

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestCloseIsIdempotentEnough(t *testing.T) {
	c, err := New(WithLogger(logging.NewTestLogger(t).Logger))
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
