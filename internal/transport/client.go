// Package transport provides the authenticated HTTP plumbing shared by the
// REST resource client and the push client.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Client provides HTTP client functionality with authentication.
type Client struct {
	http   *http.Client
	auth   Authenticator
	tokens auth.TokenProvider
}

// New creates a new transport client with the specified authenticator and
// token provider. A nil httpClient gets a default with a sane timeout.
func New(authn Authenticator, tokens auth.TokenProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if authn == nil {
		authn = &NoAuth{}
	}
	return &Client{
		http:   httpClient,
		auth:   authn,
		tokens: tokens,
	}
}

// Do performs an HTTP request with authentication applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			c.auth.Apply(req, token)
		}
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewTransportError("dial", url, err)
	}
	return c.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, url, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, url string, body any) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, url, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, errors.NewTransportError("dial", url, err)
	}
	return c.Do(req)
}

func (c *Client) send(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewTransportError("encode", url, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.NewTransportError("dial", url, err)
	}
	return c.Do(req)
}
