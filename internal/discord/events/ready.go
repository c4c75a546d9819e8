package events

import (
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

const activityName = "Minecraft servers on Aternos"

// PresenceSetter is implemented by *discordgo.Session.
type PresenceSetter interface {
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

// Starter is started the first time the bot becomes ready.
type Starter interface {
	Start() error
}

type readyHandler struct {
	log     *slog.Logger
	starter Starter
	once    sync.Once
}

// Ready sets the bot presence on every ready event and starts the given
// starter once. Presence is lost on reconnect so it is reapplied each time.
func Ready(log *slog.Logger, starter Starter) Event {
	h := &readyHandler{log: log, starter: starter}
	return Event{
		Name: "ready",
		Handler: func(s *discordgo.Session, r *discordgo.Ready) {
			h.handle(s, r)
		},
	}
}

func (h *readyHandler) handle(s PresenceSetter, r *discordgo.Ready) {
	if r.User != nil {
		h.log.Info("Bot is ready", "user", r.User.Username+"#"+r.User.Discriminator, "guilds", len(r.Guilds))
	}

	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: string(discordgo.StatusOnline),
		Activities: []*discordgo.Activity{{
			Name: activityName,
			Type: discordgo.ActivityTypeWatching,
		}},
	})
	if err != nil {
		h.log.Error("Failed to set presence", "error", err)
	}

	if h.starter == nil {
		return
	}
	h.once.Do(func() {
		if err := h.starter.Start(); err != nil {
			h.log.Error("Failed to start server monitoring", "error", err)
			return
		}
		h.log.Info("Server monitoring started")
	})
}
