package costmap

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/draft"
	"github.com/buildmetric/costmap/pkg/push"
)

// Option is a function that configures a Costmap instance.
type Option func(*config) error

// config holds everything New assembles from.
type config struct {
	apiURL     string
	sseURL     string
	token      string
	tokens     auth.TokenProvider
	logger     *zerolog.Logger
	httpClient *http.Client

	cacheTTL time.Duration

	draftStore draft.Store
	draftDB    string

	pushChannel    push.Channel
	maxAttempts    int
	reconnectDelay time.Duration
	pushOpts       []push.Option
}

// WithAPIURL sets the REST base URL of the estimates backend.
func WithAPIURL(url string) Option {
	return func(c *config) error {
		c.apiURL = url
		return nil
	}
}

// WithSSEURL sets the server-push endpoint.
func WithSSEURL(url string) Option {
	return func(c *config) error {
		c.sseURL = url
		return nil
	}
}

// WithToken sets the initial auth token. Later changes go through
// SetToken.
func WithToken(token string) Option {
	return func(c *config) error {
		c.token = token
		return nil
	}
}

// WithTokenProvider supplies a custom token source. SetToken and
// ClearToken only mutate the provider when it is a *auth.StaticProvider;
// custom providers manage their own token and SetToken just renegotiates
// the push connection.
func WithTokenProvider(tokens auth.TokenProvider) Option {
	return func(c *config) error {
		c.tokens = tokens
		return nil
	}
}

// WithLogger sets the logger shared by every subsystem.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithHTTPClient replaces the REST transport's HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		c.httpClient = client
		return nil
	}
}

// WithCacheTTL sets the partition cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) error {
		c.cacheTTL = ttl
		return nil
	}
}

// WithDraftStore supplies a custom draft persistence backend.
func WithDraftStore(store draft.Store) Option {
	return func(c *config) error {
		c.draftStore = store
		return nil
	}
}

// WithDraftDB persists drafts in a SQLite file at the given path.
func WithDraftDB(path string) Option {
	return func(c *config) error {
		c.draftDB = path
		return nil
	}
}

// WithPushChannel swaps the push transport, e.g. push.NewWSChannel.
func WithPushChannel(ch push.Channel) Option {
	return func(c *config) error {
		c.pushChannel = ch
		return nil
	}
}

// WithMaxReconnectAttempts bounds consecutive push reconnect attempts.
func WithMaxReconnectAttempts(n int) Option {
	return func(c *config) error {
		c.maxAttempts = n
		return nil
	}
}

// WithReconnectDelay sets the pause between push reconnect attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *config) error {
		c.reconnectDelay = d
		return nil
	}
}

// WithPushOptions passes extra options straight to the push client. Tests
// use this to inject schedulers and clocks.
func WithPushOptions(opts ...push.Option) Option {
	return func(c *config) error {
		c.pushOpts = append(c.pushOpts, opts...)
		return nil
	}
}
