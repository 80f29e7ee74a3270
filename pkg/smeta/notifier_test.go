package smeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/events"
)

func newTestNotifier(t *testing.T, handler http.Handler) (*Notifier, *[]events.Event) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.Nop()
	bus := events.NewBus(&logger)
	tokens := auth.NewStaticProvider("tok")
	api := NewClient(server.URL+"/api", tokens, nil, &logger)
	notifier := NewNotifier(api, bus, events.SourceDesktop, tokens)

	var published []events.Event
	for _, typ := range events.Registry {
		bus.Subscribe(typ, "recorder", func(e events.Event) {
			published = append(published, e)
		})
	}
	return notifier, &published
}

func TestNotifier_CreatePublishesLocalEvent(t *testing.T) {
	n, published := newTestNotifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"estimate_id":11,"estimate_number":"EST-011"}`))
	}))

	created, err := n.CreateEstimate(context.Background(), Estimate{EstimateNumber: "EST-011"})
	require.NoError(t, err)

	require.Len(t, *published, 1)
	e := (*published)[0]
	assert.Equal(t, events.EstimateCreated, e.Type)
	assert.Equal(t, events.OriginLocal, e.Origin)
	assert.Equal(t, events.SourceDesktop, e.Metadata.Source)
	assert.Equal(t, created, e.Data)
}

func TestNotifier_FailedWriteEmitsNothing(t *testing.T) {
	n, published := newTestNotifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"estimate_number already exists"}`))
	}))

	_, err := n.CreateEstimate(context.Background(), Estimate{EstimateNumber: "EST-011"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimate_number already exists")
	assert.Empty(t, *published, "failed writes must never notify other views")
}

func TestNotifier_DeleteCarriesOriginalID(t *testing.T) {
	n, published := newTestNotifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, n.DeleteEstimate(context.Background(), 42))

	require.Len(t, *published, 1)
	e := (*published)[0]
	assert.Equal(t, events.EstimateDeleted, e.Type)
	assert.Equal(t, map[string]any{"estimate_id": 42}, e.Data)
}

func TestNotifier_ProjectUpdate(t *testing.T) {
	n, published := newTestNotifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"project_id":3,"project_name":"Riverside B"}`))
	}))

	updated, err := n.UpdateProject(context.Background(), Project{ProjectID: 3, ProjectName: "Riverside B"})
	require.NoError(t, err)
	assert.Equal(t, "Riverside B", updated.ProjectName)

	require.Len(t, *published, 1)
	assert.Equal(t, events.ProjectUpdated, (*published)[0].Type)
}
