package model

import (
	"time"

	"github.com/vnxcius/aternos-bot/internal/monitor"
)

// StatusTransition is a persisted online/offline change of one server.
type StatusTransition struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ServerID   string    `gorm:"type:varchar(64);not null;index" json:"server_id"`
	Name       string    `gorm:"type:varchar(100)" json:"name"`
	Online     bool      `gorm:"not null" json:"online"`
	WasOnline  bool      `gorm:"not null" json:"was_online"`
	Players    int       `json:"players"`
	ObservedAt time.Time `gorm:"not null;index" json:"observed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewStatusTransition(t monitor.Transition) *StatusTransition {
	return &StatusTransition{
		ServerID:   t.Server.ID,
		Name:       t.Server.Name,
		Online:     t.Online,
		WasOnline:  t.WasOnline,
		Players:    t.Server.Players,
		ObservedAt: t.At,
	}
}
