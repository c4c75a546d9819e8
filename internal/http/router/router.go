// Package router assembles the HTTP API.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/vnxcius/aternos-bot/internal/http/handlers"
	"github.com/vnxcius/aternos-bot/internal/http/middleware"
	"github.com/vnxcius/aternos-bot/internal/token"
)

type Options struct {
	AllowedOrigins []string
	// Quota for signed routes in limiter format. Empty uses middleware.DefaultQuota.
	Quota    string
	Tokens   *token.JWTMaker
	BotToken string
}

// New builds the engine. ctx bounds the rate limiter's cleanup goroutine.
func New(ctx context.Context, log *slog.Logger, h *handlers.Handlers, opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.SlogLogger(log))
	r.Use(gin.Recovery())

	// only a local reverse proxy is trusted
	if err := r.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	log.Info("Allowing origins", "origins", opts.AllowedOrigins)
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	quota, err := middleware.Quota(lo.Ternary(opts.Quota == "", middleware.DefaultQuota, opts.Quota))
	if err != nil {
		return nil, err
	}
	rateLimit := middleware.RateLimit(ctx)

	{
		v1 := r.Group("/api/v1").Use(rateLimit)

		v1.GET("/ping", h.Ping)
		v1.GET("/servers", h.ListServers)
		v1.GET("/servers/:id", h.GetServer)
		v1.GET("/changelog", h.GetChangelog)
		v1.POST("/login", h.Login)
		v1.GET("/ws", h.ServeWebSocket)
	}

	{
		signed := r.Group("/api/v1/signed")
		signed.Use(rateLimit)
		signed.Use(quota)
		signed.Use(middleware.TokenAuth(log, opts.Tokens, opts.BotToken))

		signed.POST("/check", h.Check)
		signed.POST("/report", h.SendReport)
		signed.GET("/history", h.GetHistory)
		signed.GET("/ws-ticket", h.NewTicket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found: " + c.Request.URL.Path})
	})

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 24 * time.Hour,
	}

	if len(origins) == 0 || lo.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// NewServer wraps the engine with the timeouts used in production.
func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
