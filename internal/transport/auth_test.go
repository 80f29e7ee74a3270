package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/errors"
)

func TestBearerAuth_Apply(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.test/api/estimates/", nil)

	(&BearerAuth{}).Apply(req, "tok-123")

	assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
}

func TestQueryAuth_Apply(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.test/api/sse/?since=0", nil)

	(&QueryAuth{Param: "token"}).Apply(req, "tok-123")

	query := req.URL.Query()
	assert.Equal(t, "tok-123", query.Get("token"))
	assert.Equal(t, "0", query.Get("since"), "existing params preserved")
}

func TestQueryAuth_NilURL(t *testing.T) {
	req := &http.Request{}
	assert.NotPanics(t, func() {
		(&QueryAuth{Param: "token"}).Apply(req, "tok")
	})
}

func TestNoAuth_Apply(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)

	(&NoAuth{}).Apply(req, "tok")

	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestClient_AppliesTokenOnRequests(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := New(&BearerAuth{}, auth.NewStaticProvider("tok-9"), nil)
	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.NoError(t, DecodeResponse(resp, nil))

	assert.Equal(t, "Bearer tok-9", gotAuth)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(&BearerAuth{}, auth.NewStaticProvider(""), nil)
	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, gotAuth)
}

func TestDecodeResponse_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"estimate not found"}`))
	}))
	defer server.Close()

	c := New(&NoAuth{}, nil, nil)
	resp, err := c.Get(context.Background(), server.URL+"/api/estimates/99/")
	require.NoError(t, err)

	err = DecodeResponse(resp, &struct{}{})
	require.Error(t, err)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "estimate not found", apiErr.Message)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestDecodeResponse_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid token"}`))
	}))
	defer server.Close()

	c := New(&NoAuth{}, nil, nil)
	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)

	err = DecodeResponse(resp, nil)
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)
}
