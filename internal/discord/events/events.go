// Package events registers gateway event handlers on a discordgo session.
package events

import (
	"errors"
	"fmt"
	"log/slog"
)

var ErrInvalidEvent = errors.New(`event is missing required "name" or "handler"`)

// Event is one gateway handler. Handler must be a function discordgo accepts,
// e.g. func(*discordgo.Session, *discordgo.Ready).
type Event struct {
	Name    string
	Once    bool
	Handler any
}

// HandlerAdder is implemented by *discordgo.Session.
type HandlerAdder interface {
	AddHandler(handler any) func()
	AddHandlerOnce(handler any) func()
}

// Load attaches every valid event and returns a func that detaches them.
// Invalid events are skipped and reported in the returned error.
func Load(log *slog.Logger, s HandlerAdder, evs ...Event) (func(), error) {
	var (
		errs     []error
		removers []func()
	)
	for _, ev := range evs {
		if ev.Name == "" || ev.Handler == nil {
			log.Warn("Skipping invalid event", "name", ev.Name)
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidEvent, ev.Name))
			continue
		}

		if ev.Once {
			removers = append(removers, s.AddHandlerOnce(ev.Handler))
		} else {
			removers = append(removers, s.AddHandler(ev.Handler))
		}
		log.Info("Loaded event", "name", ev.Name, "once", ev.Once)
	}

	remove := func() {
		for _, r := range removers {
			r()
		}
	}
	return remove, errors.Join(errs...)
}
