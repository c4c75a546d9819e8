package ws

import (
	"encoding/json"
	"time"

	"github.com/vnxcius/aternos-bot/internal/panel"
)

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type EventHandler func(event Event, c *Client) error

const (
	// Sent by the hub.
	EventStatusUpdate = "status_update"
	EventServers      = "servers"
	EventPong         = "pong"

	// Sent by clients.
	EventPing       = "ping"
	EventGetServers = "get_servers"
)

type StatusUpdateEvent struct {
	ServerID  string    `json:"server_id"`
	Name      string    `json:"name"`
	Online    bool      `json:"online"`
	WasOnline bool      `json:"was_online"`
	Players   int       `json:"players"`
	At        time.Time `json:"at"`
}

type ServersEvent struct {
	Servers []panel.Server `json:"servers"`
}

func newEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: data}, nil
}
