package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

func newTestHub(t *testing.T, origins ...string) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	snapshot := func() []panel.Server {
		return []panel.Server{{ID: "server1", Name: "My Minecraft Server", Online: true}}
	}
	h := NewHub(ctx, log, snapshot, origins)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.ServeWS(w, r, r.RemoteAddr); errors.Is(err, ErrInvalidTicket) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}))
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, ticket string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?otp=" + ticket
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestConnectReceivesSnapshot(t *testing.T) {
	h, srv := newTestHub(t)

	conn, _, err := dial(t, srv, h.NewTicket().Key, nil)
	require.NoError(t, err)
	defer conn.Close()

	evt := readEvent(t, conn)
	require.Equal(t, EventServers, evt.Type)

	var payload ServersEvent
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	require.Len(t, payload.Servers, 1)
	assert.Equal(t, "server1", payload.Servers[0].ID)
}

func TestBroadcastTransition(t *testing.T) {
	h, srv := newTestHub(t)

	conn, _, err := dial(t, srv, h.NewTicket().Key, nil)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)

	tr := monitor.Transition{
		Server:    panel.Server{ID: "server2", Name: "Creative World"},
		Online:    true,
		WasOnline: false,
		At:        time.Now(),
	}
	require.NoError(t, h.RecordTransition(context.Background(), tr))

	evt := readEvent(t, conn)
	require.Equal(t, EventStatusUpdate, evt.Type)

	var payload StatusUpdateEvent
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "server2", payload.ServerID)
	assert.True(t, payload.Online)
	assert.False(t, payload.WasOnline)
}

func TestClientEvents(t *testing.T) {
	h, srv := newTestHub(t)

	conn, _, err := dial(t, srv, h.NewTicket().Key, nil)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Event{Type: EventPing}))
	assert.Equal(t, EventPong, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Event{Type: EventGetServers}))
	assert.Equal(t, EventServers, readEvent(t, conn).Type)

	// Unknown events are logged, the connection stays up.
	require.NoError(t, conn.WriteJSON(Event{Type: "nope"}))
	require.NoError(t, conn.WriteJSON(Event{Type: EventPing}))
	assert.Equal(t, EventPong, readEvent(t, conn).Type)
}

func TestTicketIsSingleUse(t *testing.T) {
	h, srv := newTestHub(t)
	ticket := h.NewTicket().Key

	conn, _, err := dial(t, srv, ticket, nil)
	require.NoError(t, err)
	conn.Close()

	_, resp, err := dial(t, srv, ticket, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOriginCheck(t *testing.T) {
	h, srv := newTestHub(t, "https://panel.example.com")

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, _, err := dial(t, srv, h.NewTicket().Key, header)
	require.Error(t, err)

	header.Set("Origin", "https://panel.example.com")
	conn, _, err := dial(t, srv, h.NewTicket().Key, header)
	require.NoError(t, err)
	conn.Close()
}

func TestRemoveClientOnDisconnect(t *testing.T) {
	h, srv := newTestHub(t)

	conn, _, err := dial(t, srv, h.NewTicket().Key, nil)
	require.NoError(t, err)
	readEvent(t, conn)
	assert.Equal(t, 1, h.ClientCount())

	conn.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 20*time.Millisecond)
}
