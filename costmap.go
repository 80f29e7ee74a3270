// Package costmap is the client-side state layer for the construction
// cost-estimates backend. It keeps one event bus, a partitioned read
// cache wired to change events, a write path that emits events only after
// the server accepts a mutation, a server-push client with bounded
// reconnects, per-screen work-item selections, and debounced draft
// persistence.
package costmap

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	appcfg "github.com/buildmetric/costmap/internal/config"
	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/cache"
	"github.com/buildmetric/costmap/pkg/draft"
	"github.com/buildmetric/costmap/pkg/draft/sqlitestore"
	"github.com/buildmetric/costmap/pkg/events"
	"github.com/buildmetric/costmap/pkg/invalidation"
	"github.com/buildmetric/costmap/pkg/logging"
	"github.com/buildmetric/costmap/pkg/push"
	"github.com/buildmetric/costmap/pkg/selection"
	"github.com/buildmetric/costmap/pkg/smeta"
)

// Costmap wires the sync subsystems together behind one handle.
type Costmap interface {
	// Bus returns the shared event bus.
	Bus() *events.Bus

	// Cache returns the partitioned read cache.
	Cache() *cache.Store

	// API returns the raw REST client for reads.
	API() *smeta.Client

	// Writer returns the write path that emits events after the server
	// accepts each mutation.
	Writer() *smeta.Notifier

	// Push returns the server-push client.
	Push() *push.Client

	// Connect dials the push endpoint.
	Connect(ctx context.Context) error

	// Drafts returns the draft manager for one entity, creating it on
	// first use. Managers share the configured store.
	Drafts(entity draft.EntityRef) *draft.Manager

	// AddSelection merges items into a scope, keeping existing picks.
	AddSelection(scope selection.Scope, items []selection.Item)

	// ReplaceSelection overwrites a scope's items.
	ReplaceSelection(scope selection.Scope, items []selection.Item)

	// ClearSelection empties a scope.
	ClearSelection(scope selection.Scope)

	// ReadSelection returns a copy of a scope's items.
	ReadSelection(scope selection.Scope) []selection.Item

	// SetToken installs a new auth token and renegotiates the push
	// connection.
	SetToken(token string)

	// ClearToken drops the token and disconnects the push channel.
	ClearToken()

	// Close tears down subscriptions, timers and the push connection.
	Close() error
}

// costmap is the internal implementation of the Costmap interface.
type costmap struct {
	bus    *events.Bus
	cache  *cache.Store
	router *invalidation.Router
	api    *smeta.Client
	writer *smeta.Notifier
	push   *push.Client
	tokens auth.TokenProvider

	draftStore draft.Store
	ownedStore io.Closer
	logger     *zerolog.Logger

	mu       sync.Mutex
	drafts   map[string]*draft.Manager
	selected selection.Store
}

// New creates a Costmap instance with the given options.
func New(opts ...Option) (Costmap, error) {
	cfg := &config{
		apiURL:   appcfg.DefaultAPIURL,
		sseURL:   appcfg.DefaultSSEURL,
		cacheTTL: cache.DefaultTTL,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.Default()
	}

	tokens := cfg.tokens
	if tokens == nil {
		tokens = auth.NewStaticProvider(cfg.token)
	}

	bus := events.NewBus(logger)
	store := cache.New(cfg.cacheTTL, 2*cfg.cacheTTL, logger)
	router := invalidation.NewRouter(bus, store.Invalidate, logger)
	router.Bind()

	api := smeta.NewClient(cfg.apiURL, tokens, cfg.httpClient, logger)
	writer := smeta.NewNotifier(api, bus, events.SourceDesktop, tokens)

	pushOpts := []push.Option{push.WithLogger(logger)}
	if cfg.pushChannel != nil {
		pushOpts = append(pushOpts, push.WithChannel(cfg.pushChannel))
	}
	if cfg.maxAttempts > 0 {
		pushOpts = append(pushOpts, push.WithMaxAttempts(cfg.maxAttempts))
	}
	if cfg.reconnectDelay > 0 {
		pushOpts = append(pushOpts, push.WithReconnectDelay(cfg.reconnectDelay))
	}
	pushOpts = append(pushOpts, cfg.pushOpts...)
	pusher := push.NewClient(cfg.sseURL, bus, tokens, pushOpts...)

	c := &costmap{
		bus:      bus,
		cache:    store,
		router:   router,
		api:      api,
		writer:   writer,
		push:     pusher,
		tokens:   tokens,
		logger:   logger,
		drafts:   make(map[string]*draft.Manager),
		selected: selection.Store{},
	}

	switch {
	case cfg.draftStore != nil:
		c.draftStore = cfg.draftStore
	case cfg.draftDB != "":
		db, err := sqlitestore.Open(cfg.draftDB)
		if err != nil {
			router.Close()
			return nil, fmt.Errorf("opening draft database: %w", err)
		}
		c.draftStore = db
		c.ownedStore = db
	default:
		c.draftStore = draft.NewMemoryStore()
	}

	return c, nil
}

func (c *costmap) Bus() *events.Bus        { return c.bus }
func (c *costmap) Cache() *cache.Store     { return c.cache }
func (c *costmap) API() *smeta.Client      { return c.api }
func (c *costmap) Writer() *smeta.Notifier { return c.writer }
func (c *costmap) Push() *push.Client      { return c.push }

// Connect dials the push endpoint.
func (c *costmap) Connect(ctx context.Context) error {
	return c.push.Connect(ctx)
}

// Drafts returns the draft manager for one entity, creating it on first
// use.
func (c *costmap) Drafts(entity draft.EntityRef) *draft.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := entity.Key()
	if m, ok := c.drafts[key]; ok {
		return m
	}
	m := draft.NewManager(entity, c.draftStore, c.logger)
	c.drafts[key] = m
	return m
}

// AddSelection merges items into a scope, keeping existing picks.
func (c *costmap) AddSelection(scope selection.Scope, items []selection.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = selection.Add(c.selected, scope, items)
}

// ReplaceSelection overwrites a scope's items.
func (c *costmap) ReplaceSelection(scope selection.Scope, items []selection.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = selection.Replace(c.selected, scope, items)
}

// ClearSelection empties a scope.
func (c *costmap) ClearSelection(scope selection.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = selection.Clear(c.selected, scope)
}

// ReadSelection returns a copy of a scope's items.
func (c *costmap) ReadSelection(scope selection.Scope) []selection.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return selection.Read(c.selected, scope)
}

// SetToken installs a new token and renegotiates the push connection.
// With a custom TokenProvider the provider is assumed to already return
// the new token.
func (c *costmap) SetToken(token string) {
	if p, ok := c.tokens.(*auth.StaticProvider); ok {
		p.Set(token)
	}
	c.push.TokenChanged()
}

// ClearToken drops the token and disconnects the push channel.
func (c *costmap) ClearToken() {
	if p, ok := c.tokens.(*auth.StaticProvider); ok {
		p.Clear()
	}
	c.push.TokenCleared()
}

// Close tears down subscriptions, timers and the push connection.
func (c *costmap) Close() error {
	c.push.Disconnect()
	c.router.Close()

	c.mu.Lock()
	for _, m := range c.drafts {
		m.Close()
	}
	c.drafts = make(map[string]*draft.Manager)
	c.mu.Unlock()

	if c.ownedStore != nil {
		return c.ownedStore.Close()
	}
	return nil
}
