package push

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/internal/transport"
	"github.com/buildmetric/costmap/pkg/errors"
)

// Channel is the underlying push transport: it dials an authenticated
// stream of Messages.
type Channel interface {
	Dial(ctx context.Context, endpoint, token string) (Stream, error)
}

// Stream is one open push connection.
type Stream interface {
	// Next blocks for the next well-formed message. It returns an error
	// when the stream ends; malformed frames are logged and skipped, the
	// stream stays open.
	Next() (Message, error)

	// Close tears the connection down.
	Close() error
}

// SSEChannel dials a Server-Sent Events stream. The token travels as a
// query parameter: this transport cannot set custom headers.
type SSEChannel struct {
	HTTP   *http.Client
	Logger *zerolog.Logger
}

// maxFrameSize caps a single event-stream line. Estimate payloads carry
// full item lists, so the default bufio.Scanner limit of 64KB is too small.
const maxFrameSize = 10 << 20

// NewSSEChannel creates the default SSE transport.
func NewSSEChannel(httpClient *http.Client, logger *zerolog.Logger) *SSEChannel {
	if httpClient == nil {
		// No overall timeout: the stream is long-lived by design.
		httpClient = &http.Client{}
	}
	return &SSEChannel{HTTP: httpClient, Logger: logger}
}

// Dial implements Channel.
func (c *SSEChannel) Dial(ctx context.Context, endpoint, token string) (Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewTransportError("dial", endpoint, err)
	}
	(&transport.QueryAuth{Param: "token"}).Apply(req, token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("dial", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.NewAPIError(endpoint, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	return &sseStream{
		body:    resp.Body,
		scanner: scanner,
		logger:  c.Logger,
	}, nil
}

// sseStream parses text/event-stream framing: "data:" lines accumulate
// until a blank line terminates the event.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *zerolog.Logger
}

// Next implements Stream.
func (s *sseStream) Next() (Message, error) {
	var data strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if data.Len() == 0 {
				continue
			}
			payload := data.String()
			data.Reset()

			var msg Message
			if err := json.Unmarshal([]byte(payload), &msg); err != nil {
				// Malformed frame: drop it, keep the connection.
				s.logger.Warn().
					Err(err).
					Str("payload", payload).
					Msg("Dropping malformed push message")
				continue
			}
			return msg, nil
		}

		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(value, " "))
		}
		// Other fields (event:, id:, retry:, comments) are ignored; the
		// backend carries the event type inside the JSON payload.
	}

	if err := s.scanner.Err(); err != nil {
		return Message{}, errors.NewTransportError("read", "", err)
	}
	return Message{}, errors.ErrConnectionClosed
}

// Close implements Stream.
func (s *sseStream) Close() error {
	return s.body.Close()
}
