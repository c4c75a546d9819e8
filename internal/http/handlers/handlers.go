// Package handlers serves the status API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vnxcius/aternos-bot/internal/database/model"
	"github.com/vnxcius/aternos-bot/internal/logging"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/otp"
	"github.com/vnxcius/aternos-bot/internal/panel"
	"github.com/vnxcius/aternos-bot/internal/token"
	"github.com/vnxcius/aternos-bot/internal/util"
	"github.com/vnxcius/aternos-bot/internal/ws"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	ticketTTL       = 5 * time.Minute
	adminSubject    = "admin"
)

type StatusService interface {
	FetchServers(ctx context.Context) ([]panel.Server, error)
	GetServerByID(ctx context.Context, id string) (panel.Server, bool)
	CachedServers() []panel.Server
	LastUpdate() time.Time
	IsDataStale(maxAge time.Duration) bool
}

type Checker interface {
	CheckServers(ctx context.Context) []monitor.Transition
	SendDailyReport(ctx context.Context)
	States() map[string]bool
}

type Changelog interface {
	Entries() ([]logging.StatusChangeEntry, error)
}

type History interface {
	History(ctx context.Context, serverID string, limit int) ([]model.StatusTransition, error)
}

type Tickets interface {
	NewTicket() otp.OTP
	ServeWS(w http.ResponseWriter, r *http.Request, ip string) error
}

// Deps wires the handlers. History is nil when no database is configured.
type Deps struct {
	Log          *slog.Logger
	Panel        StatusService
	Monitor      Checker
	Changelog    Changelog
	History      History
	Hub          Tickets
	Tokens       *token.JWTMaker
	PasswordHash string
	StaleAfter   time.Duration
	TokenTTL     time.Duration
}

type Handlers struct {
	Deps
}

func New(d Deps) *Handlers {
	if d.StaleAfter <= 0 {
		d.StaleAfter = panel.DefaultStaleAfter
	}
	if d.TokenTTL <= 0 {
		d.TokenTTL = DefaultTokenTTL
	}
	return &Handlers{Deps: d}
}

func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// ListServers answers from cache unless the cache is stale.
func (h *Handlers) ListServers(c *gin.Context) {
	servers := h.Panel.CachedServers()
	if h.Panel.IsDataStale(h.StaleAfter) {
		fresh, err := h.Panel.FetchServers(c.Request.Context())
		if err != nil {
			h.Log.Error("Failed to fetch servers", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to fetch server status"})
			return
		}
		servers = fresh
	}
	if servers == nil {
		servers = []panel.Server{}
	}

	c.JSON(http.StatusOK, ServersResponse{
		Servers:    servers,
		LastUpdate: h.Panel.LastUpdate(),
	})
}

func (h *Handlers) GetServer(c *gin.Context) {
	id := c.Param("id")
	server, ok := h.Panel.GetServerByID(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Server not found: " + id})
		return
	}
	c.JSON(http.StatusOK, server)
}

func (h *Handlers) GetChangelog(c *gin.Context) {
	entries, err := h.Changelog.Entries()
	if err != nil {
		h.Log.Error("Failed to read status changelog", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to read changelog"})
		return
	}
	if entries == nil {
		entries = []logging.StatusChangeEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handlers) Login(c *gin.Context) {
	if h.PasswordHash == "" || h.Tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Login is disabled"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if err := util.CheckPasswordHash(req.Password, h.PasswordHash); err != nil {
		h.Log.Warn("Failed login attempt", "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid password"})
		return
	}

	accessToken, claims, err := h.Tokens.CreateToken(adminSubject, adminSubject, h.TokenTTL)
	if err != nil {
		h.Log.Error("Failed to create token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create token"})
		return
	}

	h.Log.Info("Admin logged in", "ip", c.ClientIP())
	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time,
	})
}

func (h *Handlers) ServeWebSocket(c *gin.Context) {
	err := h.Hub.ServeWS(c.Writer, c.Request, c.ClientIP())
	if errors.Is(err, ws.ErrInvalidTicket) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired OTP"})
		return
	}
	if err != nil {
		// the upgrader has already replied
		h.Log.Warn("Websocket upgrade failed", "error", err)
	}
}

func (h *Handlers) NewTicket(c *gin.Context) {
	t := h.Hub.NewTicket()
	c.JSON(http.StatusOK, TicketResponse{OTP: t.Key, ExpiresAt: t.Created.Add(ticketTTL)})
}

// Check runs one status check immediately.
func (h *Handlers) Check(c *gin.Context) {
	transitions := h.Monitor.CheckServers(c.Request.Context())
	if transitions == nil {
		transitions = []monitor.Transition{}
	}
	c.JSON(http.StatusOK, CheckResponse{
		Transitions: transitions,
		States:      h.Monitor.States(),
	})
}

func (h *Handlers) SendReport(c *gin.Context) {
	h.Monitor.SendDailyReport(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"message": "Daily report dispatched"})
}

func (h *Handlers) GetHistory(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"message": "History store is not configured"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be a number"})
			return
		}
		limit = n
	}

	rows, err := h.History.History(c.Request.Context(), c.Query("server"), limit)
	if err != nil {
		h.Log.Error("Failed to read history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to read history"})
		return
	}
	if rows == nil {
		rows = []model.StatusTransition{}
	}
	c.JSON(http.StatusOK, gin.H{"transitions": rows})
}
