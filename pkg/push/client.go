package push

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/pkg/auth"
	"github.com/buildmetric/costmap/pkg/errors"
	"github.com/buildmetric/costmap/pkg/events"
	"github.com/buildmetric/costmap/pkg/logging"
)

// State is the client's position in the connection lifecycle.
type State string

// Lifecycle states. GaveUp is terminal until an explicit Connect or a
// token change resets the retry budget.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateGaveUp       State = "gave_up"
)

// Defaults for the reconnect machinery.
const (
	// DefaultMaxAttempts bounds consecutive reconnect attempts before the
	// client gives up.
	DefaultMaxAttempts = 5

	// DefaultReconnectDelay is the pause before each reconnect attempt.
	DefaultReconnectDelay = 3 * time.Second

	// DefaultSettleDelay is the pause after a token change before dialing,
	// letting rapid token updates coalesce into one reconnect.
	DefaultSettleDelay = 500 * time.Millisecond
)

// Stats is a point-in-time snapshot of the client's counters.
type Stats struct {
	State      State `json:"state"`
	Attempts   int   `json:"attempts"`
	Received   int64 `json:"received"`
	Reconnects int64 `json:"reconnects"`
}

// Client maintains the server-push connection and republishes inbound
// messages on the event bus with origin remote. All state transitions
// happen under one mutex; bus publishes happen outside it so subscribers
// may call back into the client.
type Client struct {
	endpoint string
	channel  Channel
	bus      *events.Bus
	tokens   auth.TokenProvider
	logger   *zerolog.Logger

	scheduler      Scheduler
	clock          Clock
	maxAttempts    int
	reconnectDelay time.Duration
	settleDelay    time.Duration

	mu           sync.Mutex
	state        State
	attempts     int
	gen          uint64
	stream       Stream
	retryTimer   Timer
	cancelDial   context.CancelFunc
	lostNotified bool

	received   atomic.Int64
	reconnects atomic.Int64
}

// Option configures the Client.
type Option func(*Client)

// WithChannel swaps the transport, e.g. NewWSChannel for WebSocket.
func WithChannel(ch Channel) Option {
	return func(c *Client) { c.channel = ch }
}

// WithScheduler replaces the timer source, used by tests.
func WithScheduler(s Scheduler) Option {
	return func(c *Client) { c.scheduler = s }
}

// WithClock replaces the time source, used by tests.
func WithClock(clk Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithMaxAttempts sets the reconnect attempt cap.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithReconnectDelay sets the pause between reconnect attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithSettleDelay sets the pause after a token change before redialing.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.settleDelay = d
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a push client for the given endpoint. It does not dial
// until Connect.
func NewClient(endpoint string, bus *events.Bus, tokens auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		endpoint:       endpoint,
		bus:            bus,
		tokens:         tokens,
		logger:         logging.Default(),
		scheduler:      SystemScheduler(),
		clock:          SystemClock(),
		maxAttempts:    DefaultMaxAttempts,
		reconnectDelay: DefaultReconnectDelay,
		settleDelay:    DefaultSettleDelay,
		state:          StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.channel == nil {
		c.channel = NewSSEChannel(nil, c.logger)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the consecutive failed attempts since the last
// successful connection or explicit Connect.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// GetStats returns a snapshot of the client's counters.
func (c *Client) GetStats() Stats {
	c.mu.Lock()
	state, attempts := c.state, c.attempts
	c.mu.Unlock()
	return Stats{
		State:      state,
		Attempts:   attempts,
		Received:   c.received.Load(),
		Reconnects: c.reconnects.Load(),
	}
}

// Connect dials the push endpoint. An explicit Connect always resets the
// retry budget, so it also recovers from the gave-up state. Returns
// ErrTokenRequired when no token is available.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.teardownLocked()
	c.attempts = 0
	c.mu.Unlock()
	return c.connect(ctx)
}

// connect performs one dial attempt. Unlike Connect it preserves the
// attempt counter, so the scheduled retry path accumulates failures.
func (c *Client) connect(ctx context.Context) error {
	token := c.tokens.Token()
	if token == "" {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return errors.ErrTokenRequired
	}

	c.mu.Lock()
	c.state = StateConnecting
	gen := c.gen
	dialCtx, cancel := context.WithCancel(ctx)
	c.cancelDial = cancel
	c.mu.Unlock()

	stream, err := c.channel.Dial(dialCtx, c.endpoint, token)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("endpoint", c.endpoint).
			Msg("Push channel dial failed")
		return c.onFailure(ctx, gen)
	}

	c.mu.Lock()
	if gen != c.gen {
		// Torn down while the dial was in flight, e.g. Disconnect at
		// logout. The teardown already set the final state.
		c.mu.Unlock()
		stream.Close()
		return errors.ErrConnectionClosed
	}
	c.stream = stream
	c.state = StateConnected
	c.attempts = 0
	wasLost := c.lostNotified
	c.lostNotified = false
	c.mu.Unlock()

	if wasLost {
		c.reconnects.Add(1)
	}
	c.bus.Publish(events.Event{
		Type:   events.ConnectionRestored,
		Origin: events.OriginRemote,
		Metadata: events.Metadata{
			Timestamp: c.clock.Now(),
			Source:    events.SourceSSE,
		},
	})
	c.logger.Info().Str("endpoint", c.endpoint).Msg("Push channel connected")

	go c.readLoop(ctx, stream, gen)
	return nil
}

// onFailure records a failed attempt and either schedules a retry or, once
// the budget is spent, parks the client in the gave-up state. gen is the
// teardown generation the attempt started under: a failure from before a
// deliberate teardown must not restart the reconnect loop.
func (c *Client) onFailure(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return errors.ErrConnectionClosed
	}
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}

	// One connection-lost event per outage, not one per failed retry.
	notifyLost := !c.lostNotified
	if notifyLost {
		c.lostNotified = true
	}

	if c.attempts >= c.maxAttempts {
		c.state = StateGaveUp
		c.mu.Unlock()
		if notifyLost {
			c.publishLost()
		}
		c.logger.Error().
			Int("attempts", c.maxAttempts).
			Msg("Push reconnect budget exhausted")
		return errors.ErrGaveUp
	}

	c.attempts++
	c.state = StateReconnecting
	attempt := c.attempts
	c.retryTimer = c.scheduler.AfterFunc(c.reconnectDelay, func() {
		c.redial(ctx)
	})
	c.mu.Unlock()

	if notifyLost {
		c.publishLost()
	}
	c.logger.Info().
		Int("attempt", attempt).
		Int("max_attempts", c.maxAttempts).
		Dur("delay", c.reconnectDelay).
		Msg("Push reconnect scheduled")
	return errors.ErrConnectionClosed
}

// redial is the scheduled-retry entry point. Stopping a fired timer is a
// no-op, so it re-checks that the client still wants the dial.
func (c *Client) redial(ctx context.Context) {
	c.mu.Lock()
	live := c.state == StateReconnecting
	c.mu.Unlock()
	if !live {
		return
	}
	c.connect(ctx)
}

func (c *Client) publishLost() {
	c.bus.Publish(events.Event{
		Type:   events.ConnectionLost,
		Origin: events.OriginRemote,
		Metadata: events.Metadata{
			Timestamp: c.clock.Now(),
			Source:    events.SourceSSE,
		},
	})
}

// readLoop drains one stream until it errors. A stream replaced or torn
// down under the mutex no longer matches c.stream, which marks the error
// as a deliberate close rather than a network failure.
func (c *Client) readLoop(ctx context.Context, stream Stream, gen uint64) {
	for {
		msg, err := stream.Next()
		if err != nil {
			c.mu.Lock()
			deliberate := c.stream != stream
			c.mu.Unlock()
			if deliberate {
				return
			}
			c.logger.Warn().Err(err).Msg("Push stream dropped")
			c.onFailure(ctx, gen)
			return
		}
		c.deliver(msg)
	}
}

// deliver republishes one inbound message on the bus. Sentinel frames are
// dropped; unknown event names are forwarded so subscribers decide.
func (c *Client) deliver(msg Message) {
	if msg.sentinel() {
		c.logger.Debug().Str("event", msg.Event).Msg("Push sentinel")
		return
	}
	c.received.Add(1)

	ts := msg.Timestamp.Time
	if ts.IsZero() {
		ts = c.clock.Now()
	}
	claims := auth.Decode(c.tokens.Token())
	c.bus.Publish(events.Event{
		Type:   events.Type(msg.Event),
		Data:   msg.Data,
		Origin: events.OriginRemote,
		Metadata: events.Metadata{
			Timestamp: ts,
			Source:    events.SourceSSE,
			UserID:    claims.UserID,
			UserRole:  claims.Role,
		},
	})
}

// TokenChanged quietly drops the current connection and redials with the
// new token after a short settle delay. The retry budget resets, so a
// fresh token also recovers from the gave-up state. An empty new token is
// treated as TokenCleared.
func (c *Client) TokenChanged() {
	if c.tokens.Token() == "" {
		c.TokenCleared()
		return
	}

	c.mu.Lock()
	c.teardownLocked()
	c.attempts = 0
	c.lostNotified = false
	c.state = StateReconnecting
	c.retryTimer = c.scheduler.AfterFunc(c.settleDelay, func() {
		c.redial(context.Background())
	})
	c.mu.Unlock()

	c.logger.Debug().Dur("settle", c.settleDelay).Msg("Token changed, redialing")
}

// TokenCleared disconnects without retrying. Used at logout.
func (c *Client) TokenCleared() {
	c.Disconnect()
}

// Disconnect closes the connection and cancels any pending retry. No
// connection-lost event is published.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.teardownLocked()
	c.attempts = 0
	c.lostNotified = false
	c.state = StateDisconnected
	c.mu.Unlock()
	c.logger.Debug().Msg("Push channel disconnected")
}

// teardownLocked stops the timer, the stream and the dial context, and
// bumps the generation so an in-flight dial or stream error from before
// the teardown is recognized as stale. Caller holds the mutex.
func (c *Client) teardownLocked() {
	c.gen++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
}
