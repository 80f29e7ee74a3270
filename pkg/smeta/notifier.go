package smeta

import (
	"context"
	"time"

	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/events"
)

// Notifier wraps the resource client so that every successful mutation also
// publishes a local-origin event on the bus. The mutating call always runs
// first; a failed write propagates its error unchanged and emits nothing,
// so other views never refresh on top of a write that did not happen.
//
// Reads pass through untouched.
type Notifier struct {
	api    *Client
	bus    *events.Bus
	source events.Source
	tokens auth.TokenProvider
	now    func() time.Time
}

// NewNotifier creates a notifier for the given surface (desktop or mobile).
func NewNotifier(api *Client, bus *events.Bus, source events.Source, tokens auth.TokenProvider) *Notifier {
	return &Notifier{
		api:    api,
		bus:    bus,
		source: source,
		tokens: tokens,
		now:    time.Now,
	}
}

// API returns the underlying resource client for read operations.
func (n *Notifier) API() *Client {
	return n.api
}

// CreateEstimate creates an estimate and publishes estimate.created.
func (n *Notifier) CreateEstimate(ctx context.Context, e Estimate) (*Estimate, error) {
	created, err := n.api.CreateEstimate(ctx, e)
	if err != nil {
		return nil, err
	}
	n.publish(events.EstimateCreated, created)
	return created, nil
}

// UpdateEstimate updates an estimate and publishes estimate.updated.
func (n *Notifier) UpdateEstimate(ctx context.Context, e Estimate) (*Estimate, error) {
	updated, err := n.api.UpdateEstimate(ctx, e)
	if err != nil {
		return nil, err
	}
	n.publish(events.EstimateUpdated, updated)
	return updated, nil
}

// DeleteEstimate deletes an estimate and publishes estimate.deleted with the
// original id, since the server returns no body for deletes.
func (n *Notifier) DeleteEstimate(ctx context.Context, id int) error {
	if err := n.api.DeleteEstimate(ctx, id); err != nil {
		return err
	}
	n.publish(events.EstimateDeleted, map[string]any{"estimate_id": id})
	return nil
}

// CreateProject creates a project and publishes project.created.
func (n *Notifier) CreateProject(ctx context.Context, p Project) (*Project, error) {
	created, err := n.api.CreateProject(ctx, p)
	if err != nil {
		return nil, err
	}
	n.publish(events.ProjectCreated, created)
	return created, nil
}

// UpdateProject updates a project and publishes project.updated.
func (n *Notifier) UpdateProject(ctx context.Context, p Project) (*Project, error) {
	updated, err := n.api.UpdateProject(ctx, p)
	if err != nil {
		return nil, err
	}
	n.publish(events.ProjectUpdated, updated)
	return updated, nil
}

// DeleteProject deletes a project and publishes project.deleted.
func (n *Notifier) DeleteProject(ctx context.Context, id int) error {
	if err := n.api.DeleteProject(ctx, id); err != nil {
		return err
	}
	n.publish(events.ProjectDeleted, map[string]any{"project_id": id})
	return nil
}

func (n *Notifier) publish(t events.Type, data any) {
	md := events.Metadata{
		Timestamp: n.now(),
		Source:    n.source,
	}
	if n.tokens != nil {
		claims := auth.Decode(n.tokens.Token())
		md.UserID = claims.UserID
		md.UserRole = claims.Role
	}
	n.bus.Publish(events.Event{
		Type:     t,
		Data:     data,
		Origin:   events.OriginLocal,
		Metadata: md,
	})
}
