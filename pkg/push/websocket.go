package push

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/buildmetric/costmap/pkg/errors"
)

// WSChannel dials a WebSocket carrying the same {event, data, timestamp}
// payloads as the SSE stream. Used where intermediaries buffer or strip
// event-stream responses. The token still travels as a query parameter so
// both transports authenticate identically.
type WSChannel struct {
	Dialer *websocket.Dialer
	Logger *zerolog.Logger
}

// NewWSChannel creates the WebSocket transport.
func NewWSChannel(logger *zerolog.Logger) *WSChannel {
	return &WSChannel{Dialer: websocket.DefaultDialer, Logger: logger}
}

// Dial implements Channel.
func (c *WSChannel) Dial(ctx context.Context, endpoint, token string) (Stream, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.NewTransportError("dial", endpoint, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	query := u.Query()
	query.Set("token", token)
	u.RawQuery = query.Encode()

	conn, resp, err := c.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, errors.NewAPIError(endpoint, resp.StatusCode, err.Error())
		}
		return nil, errors.NewTransportError("dial", endpoint, err)
	}
	return &wsStream{conn: conn, logger: c.Logger}, nil
}

type wsStream struct {
	conn   *websocket.Conn
	logger *zerolog.Logger
}

// Next implements Stream.
func (s *wsStream) Next() (Message, error) {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return Message{}, errors.ErrConnectionClosed
			}
			return Message{}, errors.NewTransportError("read", "", err)
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn().
				Err(err).
				Str("payload", strings.ToValidUTF8(string(payload), "")).
				Msg("Dropping malformed push message")
			continue
		}
		return msg, nil
	}
}

// Close implements Stream.
func (s *wsStream) Close() error {
	return s.conn.Close()
}
