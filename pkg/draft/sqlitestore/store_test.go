package sqlitestore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmetric/costmap/pkg/draft"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGetDelete(t *testing.T) {
	s := openTestStore(t)
	entity := draft.ExistingEntity(5)

	snapshot := draft.Snapshot{
		Entity:     entity,
		FormState:  json.RawMessage(`{"number":"EST-5"}`),
		CapturedAt: time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.Put(snapshot))

	got, ok, err := s.Get(entity)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entity, got.Entity)
	assert.JSONEq(t, `{"number":"EST-5"}`, string(got.FormState))

	require.NoError(t, s.Delete(entity))
	_, ok, err = s.Get(entity)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is not an error.
	require.NoError(t, s.Delete(entity))
}

func TestStore_PutReplacesSameKey(t *testing.T) {
	s := openTestStore(t)
	entity := draft.NewEntity()

	require.NoError(t, s.Put(draft.Snapshot{
		Entity: entity, FormState: json.RawMessage(`{"v":1}`), CapturedAt: time.Now(),
	}))
	require.NoError(t, s.Put(draft.Snapshot{
		Entity: entity, FormState: json.RawMessage(`{"v":2}`), CapturedAt: time.Now(),
	}))

	got, ok, err := s.Get(entity)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(got.FormState), "last write wins")

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_PruneExpiredOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(draft.Snapshot{
		Entity:     draft.ExistingEntity(1),
		CapturedAt: time.Now().Add(-25 * time.Hour),
	}))
	require.NoError(t, s.Put(draft.Snapshot{
		Entity:     draft.ExistingEntity(2),
		CapturedAt: time.Now(),
	}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 1, "expired drafts pruned on open")
	assert.Equal(t, draft.ExistingEntity(2), all[0].Entity)
}

func TestStore_SeparateEntitiesSeparateRows(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(draft.Snapshot{Entity: draft.NewEntity(), CapturedAt: time.Now()}))
	require.NoError(t, s.Put(draft.Snapshot{Entity: draft.ExistingEntity(1), CapturedAt: time.Now()}))

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
