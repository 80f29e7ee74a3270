package smeta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := zerolog.Nop()
	return NewClient(server.URL+"/api", auth.NewStaticProvider("tok"), nil, &logger)
}

func TestClient_ListEstimates(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/estimates/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"estimate_id":1,"estimate_number":"EST-001","project_name":"Riverside","status_name":"draft"},
			{"estimate_id":2,"estimate_number":"EST-002","project_name":"Hilltop","status_name":"approved"}
		]`))
	}))

	estimates, err := c.ListEstimates(context.Background())
	require.NoError(t, err)
	require.Len(t, estimates, 2)
	assert.Equal(t, "EST-001", estimates[0].EstimateNumber)
	assert.Equal(t, "Hilltop", estimates[1].ProjectName)
}

func TestClient_CreateEstimate(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body Estimate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body.EstimateID = 10
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	}))

	created, err := c.CreateEstimate(context.Background(), Estimate{EstimateNumber: "EST-010", ProjectID: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, created.EstimateID)
	assert.Equal(t, "EST-010", created.EstimateNumber)
}

func TestClient_UpdateEstimateRequiresID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := c.UpdateEstimate(context.Background(), Estimate{EstimateNumber: "EST-X"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestClient_DeleteEstimate(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteEstimate(context.Background(), 7))
	assert.Equal(t, "/api/estimates/7/", gotPath)
}

func TestClient_GetEstimateNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	}))

	_, err := c.GetEstimate(context.Background(), 99)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestClient_ListWorkTypes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/work-types/", r.URL.Path)
		// Prices arrive as decimal strings from the backend.
		_, _ = w.Write([]byte(`[
			{"work_type_id":5,"work_name":"Brick laying","unit_of_measurement":"m2",
			 "category":{"category_id":1,"category_name":"Masonry"},
			 "prices":{"cost_price":"120.50","client_price":"180.00"}}
		]`))
	}))

	works, err := c.ListWorkTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "Brick laying", works[0].WorkName)
	assert.InDelta(t, 120.50, works[0].Prices.CostPrice, 0.001)
	assert.InDelta(t, 180.00, works[0].Prices.ClientPrice, 0.001)
}

func TestClient_ListUsersForbiddenForForeman(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"forbidden"}`))
	}))

	_, err := c.ListUsers(context.Background())
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)
}
