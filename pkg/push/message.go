// Package push maintains the long-lived server-push channel that delivers
// other clients' changes. It runs an explicit reconnect state machine with
// a bounded retry budget and re-emits inbound messages on the event bus
// with origin remote.
package push

import (
	"encoding/json"
	"math"
	"time"
)

// Sentinel event values on the wire that never reach the bus.
const (
	// eventKeepalive is the server's periodic liveness ping.
	eventKeepalive = "keepalive"

	// eventConnected is the server's connection acknowledgment.
	eventConnected = "connected"
)

// Message is one server-push payload: {event, data, timestamp}.
type Message struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Timestamp Timestamp      `json:"timestamp"`
}

// sentinel reports whether the message is protocol chatter to discard
// before the bus.
func (m Message) sentinel() bool {
	return m.Event == eventKeepalive || m.Event == eventConnected
}

// Timestamp tolerates both RFC3339 strings and Unix epoch numbers; the
// backend sends either depending on the code path. A value that parses as
// neither is left zero rather than failing the whole message.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var epoch float64
	if err := json.Unmarshal(b, &epoch); err == nil {
		sec, frac := math.Modf(epoch)
		t.Time = time.Unix(int64(sec), int64(frac*1e9))
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
	}
	return nil
}
