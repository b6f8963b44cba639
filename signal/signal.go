// Package signal carries session events between client instances of the same
// profile: a logout in one instance must reach every other instance without a
// network round trip through the platform itself.
//
// Two transports are provided. FileSignal rides the shared profile state file
// and reaches instances on the same machine. RedisSignal rides a Redis stream
// and reaches instances anywhere that can see the same Redis, for kiosk and
// fleet deployments.
package signal

import (
	"context"
	"encoding/json"
	"time"
)

// Event kinds.
const (
	KindLogout         = "logout"
	KindSessionExpired = "session-expired"
)

// Event is one cross-instance session notification. Origin identifies the
// emitting client instance so receivers can discard their own echoes;
// delivery is at-least-once and receivers must treat events idempotently.
type Event struct {
	Kind     string    `json:"kind"`
	Origin   string    `json:"origin"`
	IssuedAt time.Time `json:"issued_at"`
}

func (e Event) encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEvent(raw []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(raw, &ev)
	return ev, err
}

// Transport moves Events between client instances.
type Transport interface {
	// Announce publishes ev to the other instances on this transport.
	Announce(ctx context.Context, ev Event) error
	// Listen returns a channel of events observed on this transport,
	// including the caller's own announcements, until ctx is cancelled.
	Listen(ctx context.Context) (<-chan Event, error)
	// Close releases transport resources. Listen channels close shortly
	// after.
	Close() error
}
