package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnxcius/aternos-bot/internal/http/handlers"
	"github.com/vnxcius/aternos-bot/internal/logging"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/panel"
	"github.com/vnxcius/aternos-bot/internal/token"
	"github.com/vnxcius/aternos-bot/internal/ws"
)

type stubMonitor struct{}

func (stubMonitor) CheckServers(context.Context) []monitor.Transition { return nil }
func (stubMonitor) SendDailyReport(context.Context)                   {}
func (stubMonitor) States() map[string]bool                           { return map[string]bool{} }

type stubChangelog struct{}

func (stubChangelog) Entries() ([]logging.StatusChangeEntry, error) { return nil, nil }

func newTestEngine(t *testing.T, tokens *token.JWTMaker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := panel.NewService(log, "", "")
	h := handlers.New(handlers.Deps{
		Log:       log,
		Panel:     svc,
		Monitor:   stubMonitor{},
		Changelog: stubChangelog{},
		Hub:       ws.NewHub(ctx, log, svc.CachedServers, nil),
		Tokens:    tokens,
	})

	r, err := New(ctx, log, h, Options{Tokens: tokens, BotToken: "bot-token", Quota: "1000-H"})
	require.NoError(t, err)
	return r
}

func do(r *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestPublicRoutes(t *testing.T) {
	r := newTestEngine(t, token.NewJWTMaker("secret"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/ping", "").Code)

	w := do(r, http.MethodGet, "/api/v1/servers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "server1")

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/servers/server2", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/servers/server9", "").Code)
}

func TestWebSocketRequiresTicket(t *testing.T) {
	r := newTestEngine(t, nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/ws?otp=nope", "").Code)
}

func TestSignedRoutesRequireToken(t *testing.T) {
	tokens := token.NewJWTMaker("secret")
	r := newTestEngine(t, tokens)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/signed/check", "").Code)

	w := do(r, http.MethodPost, "/api/v1/signed/check", "bot-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))

	jwt, _, err := tokens.CreateToken("admin", "admin", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/signed/ws-ticket", jwt).Code)
	assert.Equal(t, http.StatusNotImplemented, do(r, http.MethodGet, "/api/v1/signed/history", jwt).Code)
}

func TestNoRoute(t *testing.T) {
	r := newTestEngine(t, nil)
	w := do(r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not Found: /nope")
}

func TestCorsConfig(t *testing.T) {
	cfg := corsConfig(nil)
	assert.True(t, cfg.AllowAllOrigins)
	assert.False(t, cfg.AllowCredentials)

	cfg = corsConfig([]string{"https://panel.example.com"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, []string{"https://panel.example.com"}, cfg.AllowOrigins)
}
