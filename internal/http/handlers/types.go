package handlers

import (
	"time"

	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ServersResponse struct {
	Servers    []panel.Server `json:"servers"`
	LastUpdate time.Time      `json:"last_update"`
}

type CheckResponse struct {
	Transitions []monitor.Transition `json:"transitions"`
	States      map[string]bool      `json:"states"`
}

type TicketResponse struct {
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
}
