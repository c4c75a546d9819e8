// Package ws pushes server status changes to websocket clients.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/otp"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

const ticketMaxAge = 5 * time.Minute

var ErrInvalidTicket = errors.New("invalid or expired websocket ticket")

// SnapshotFunc returns the servers sent to newly connected clients.
type SnapshotFunc func() []panel.Server

type Hub struct {
	log      *slog.Logger
	snapshot SnapshotFunc
	otps     *otp.RetentionMap
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[*Client]bool
	handlers map[string]EventHandler
}

// NewHub creates a hub whose ticket store lives until ctx is done. An empty
// allowedOrigins list or one containing "*" accepts any origin.
func NewHub(ctx context.Context, log *slog.Logger, snapshot SnapshotFunc, allowedOrigins []string) *Hub {
	h := &Hub{
		log:      log,
		snapshot: snapshot,
		otps:     otp.NewRetentionMap(ctx, ticketMaxAge),
		clients:  make(map[*Client]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
	h.handlers = map[string]EventHandler{
		EventPing:       h.handlePing,
		EventGetServers: h.handleGetServers,
	}
	return h
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || lo.Contains(allowed, "*") {
			return true
		}
		return lo.Contains(allowed, origin)
	}
}

// NewTicket issues a single-use ticket for ServeWS.
func (h *Hub) NewTicket() otp.OTP {
	return h.otps.Add()
}

// ServeWS upgrades the request once its otp query parameter checks out.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, ip string) error {
	if !h.otps.VerifyOTP(r.URL.Query().Get("otp")) {
		return ErrInvalidTicket
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}
	h.AddClient(conn, ip)
	return nil
}

func (h *Hub) AddClient(conn *websocket.Conn, ip string) *Client {
	c := NewClient(conn, h, ip)

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.log.Info("Websocket client connected", "ip", ip)

	go c.WriteMessages()
	go c.ReadMessages()

	if err := h.sendServers(c); err != nil {
		h.log.Error("Failed to send servers snapshot", "error", err)
	}
	return c
}

func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.egress)
		c.connection.Close()
		h.log.Info("Websocket client disconnected", "ip", c.ip)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := lo.Keys(h.clients)
	h.mu.RUnlock()

	for _, c := range clients {
		h.RemoveClient(c)
	}
}

// RecordTransition broadcasts a status change to all clients.
func (h *Hub) RecordTransition(_ context.Context, t monitor.Transition) error {
	evt, err := newEvent(EventStatusUpdate, StatusUpdateEvent{
		ServerID:  t.Server.ID,
		Name:      t.Server.Name,
		Online:    t.Online,
		WasOnline: t.WasOnline,
		Players:   t.Server.Players,
		At:        t.At,
	})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}
	h.broadcast(evt)
	return nil
}

func (h *Hub) broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.egress <- evt:
			h.log.Debug("Broadcasting event", "type", evt.Type)
		default:
			h.log.Warn("Client buffer full, dropping event", "ip", c.ip)
		}
	}
}

// send queues evt for c unless c already disconnected.
func (h *Hub) send(c *Client, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[c] {
		return
	}
	select {
	case c.egress <- evt:
	default:
		h.log.Warn("Client buffer full, dropping event", "ip", c.ip)
	}
}

func (h *Hub) routeEvent(event Event, c *Client) error {
	handler, ok := h.handlers[event.Type]
	if !ok {
		return fmt.Errorf("unknown event type: %q", event.Type)
	}
	return handler(event, c)
}

func (h *Hub) handlePing(_ Event, c *Client) error {
	h.send(c, Event{Type: EventPong})
	return nil
}

func (h *Hub) handleGetServers(_ Event, c *Client) error {
	return h.sendServers(c)
}

func (h *Hub) sendServers(c *Client) error {
	var servers []panel.Server
	if h.snapshot != nil {
		servers = h.snapshot()
	}
	if servers == nil {
		servers = []panel.Server{}
	}

	evt, err := newEvent(EventServers, ServersEvent{Servers: servers})
	if err != nil {
		return err
	}
	h.send(c, evt)
	return nil
}
