package smeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/internal/transport"
	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/errors"
)

// Client is the REST resource client for the estimates service. It performs
// plain CRUD; event emission on success is the Notifier's job.
type Client struct {
	http    *transport.Client
	baseURL string
	logger  *zerolog.Logger
}

// NewClient creates a resource client. baseURL is the API root, e.g.
// "https://smeta.example.com/api".
func NewClient(baseURL string, tokens auth.TokenProvider, httpClient *http.Client, logger *zerolog.Logger) *Client {
	return &Client{
		http:    transport.New(&transport.BearerAuth{}, tokens, httpClient),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (c *Client) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// ListEstimates returns the estimates visible to the current user.
func (c *Client) ListEstimates(ctx context.Context) ([]Estimate, error) {
	resp, err := c.http.Get(ctx, c.url("/estimates/"))
	if err != nil {
		return nil, errors.WrapResource("fetch", "estimate", "", err)
	}
	var estimates []Estimate
	if err := transport.DecodeResponse(resp, &estimates); err != nil {
		return nil, err
	}
	return estimates, nil
}

// GetEstimate returns one estimate with its items.
func (c *Client) GetEstimate(ctx context.Context, id int) (*Estimate, error) {
	resp, err := c.http.Get(ctx, c.url("/estimates/%d/", id))
	if err != nil {
		return nil, errors.WrapResource("fetch", "estimate", fmt.Sprint(id), err)
	}
	var estimate Estimate
	if err := transport.DecodeResponse(resp, &estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}

// CreateEstimate creates an estimate and returns the server representation.
func (c *Client) CreateEstimate(ctx context.Context, e Estimate) (*Estimate, error) {
	resp, err := c.http.Post(ctx, c.url("/estimates/"), e)
	if err != nil {
		return nil, errors.WrapResource("create", "estimate", "", err)
	}
	var created Estimate
	if err := transport.DecodeResponse(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEstimate updates an estimate and returns the server representation.
func (c *Client) UpdateEstimate(ctx context.Context, e Estimate) (*Estimate, error) {
	if e.EstimateID == 0 {
		return nil, errors.NewValidationError("estimate_id", e.EstimateID, "required for update")
	}
	resp, err := c.http.Put(ctx, c.url("/estimates/%d/", e.EstimateID), e)
	if err != nil {
		return nil, errors.WrapResource("update", "estimate", fmt.Sprint(e.EstimateID), err)
	}
	var updated Estimate
	if err := transport.DecodeResponse(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEstimate deletes an estimate.
func (c *Client) DeleteEstimate(ctx context.Context, id int) error {
	resp, err := c.http.Delete(ctx, c.url("/estimates/%d/", id))
	if err != nil {
		return errors.WrapResource("delete", "estimate", fmt.Sprint(id), err)
	}
	return transport.DecodeResponse(resp, nil)
}

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	resp, err := c.http.Get(ctx, c.url("/projects/"))
	if err != nil {
		return nil, errors.WrapResource("fetch", "project", "", err)
	}
	var projects []Project
	if err := transport.DecodeResponse(resp, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project and returns the server representation.
func (c *Client) CreateProject(ctx context.Context, p Project) (*Project, error) {
	resp, err := c.http.Post(ctx, c.url("/projects/"), p)
	if err != nil {
		return nil, errors.WrapResource("create", "project", "", err)
	}
	var created Project
	if err := transport.DecodeResponse(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProject updates a project and returns the server representation.
func (c *Client) UpdateProject(ctx context.Context, p Project) (*Project, error) {
	if p.ProjectID == 0 {
		return nil, errors.NewValidationError("project_id", p.ProjectID, "required for update")
	}
	resp, err := c.http.Put(ctx, c.url("/projects/%d/", p.ProjectID), p)
	if err != nil {
		return nil, errors.WrapResource("update", "project", fmt.Sprint(p.ProjectID), err)
	}
	var updated Project
	if err := transport.DecodeResponse(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id int) error {
	resp, err := c.http.Delete(ctx, c.url("/projects/%d/", id))
	if err != nil {
		return errors.WrapResource("delete", "project", fmt.Sprint(id), err)
	}
	return transport.DecodeResponse(resp, nil)
}

// ListWorkTypes returns the work catalog with current prices.
func (c *Client) ListWorkTypes(ctx context.Context) ([]WorkType, error) {
	resp, err := c.http.Get(ctx, c.url("/work-types/"))
	if err != nil {
		return nil, errors.WrapResource("fetch", "work", "", err)
	}
	var works []WorkType
	if err := transport.DecodeResponse(resp, &works); err != nil {
		return nil, err
	}
	return works, nil
}

// ListUsers returns all users. Role-gated server side; foremen get 403.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	resp, err := c.http.Get(ctx, c.url("/users/"))
	if err != nil {
		return nil, errors.WrapResource("fetch", "user", "", err)
	}
	var users []User
	if err := transport.DecodeResponse(resp, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	resp, err := c.http.Get(ctx, c.url("/auth/me/"))
	if err != nil {
		return nil, errors.WrapResource("fetch", "user", "me", err)
	}
	var user User
	if err := transport.DecodeResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
