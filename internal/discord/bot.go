// Package discord connects the bot to the Discord gateway and posts
// monitor notifications.
package discord

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/vnxcius/aternos-bot/internal/discord/commands"
	"github.com/vnxcius/aternos-bot/internal/discord/events"
)

const intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

type Options struct {
	// GuildID scopes command registration. Empty registers globally.
	GuildID        string
	RemoveCommands bool
}

// gateway is the part of *discordgo.Session that Open and Close drive.
type gateway interface {
	events.HandlerAdder
	commands.CommandSyncer
	Open() error
	Close() error
}

type Bot struct {
	log      *slog.Logger
	session  *discordgo.Session
	gw       gateway
	userID   func() (string, error)
	registry *commands.Registry
	opts     Options

	mu             sync.Mutex
	events         []events.Event
	removeHandlers func()
	appID          string
}

func New(log *slog.Logger, token string, registry *commands.Registry, opts Options) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord bot token is empty")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = intents

	return &Bot{
		log:     log,
		session: session,
		gw:      session,
		userID: func() (string, error) {
			if session.State == nil || session.State.User == nil {
				return "", errors.New("discord session has no user after open")
			}
			return session.State.User.ID, nil
		},
		registry: registry,
		opts:     opts,
	}, nil
}

// Session exposes the underlying session, e.g. as a MessageSender.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// AddEvents queues gateway handlers. They are attached on Open.
func (b *Bot) AddEvents(evs ...events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evs...)
}

// Open connects to the gateway and publishes the registered commands.
// An invalid token surfaces here.
func (b *Bot) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	evs := append([]events.Event{{
		Name:    "interactionCreate",
		Handler: b.registry.HandleInteraction,
	}}, b.events...)

	remove, err := events.Load(b.log, b.gw, evs...)
	if err != nil {
		b.log.Warn("Some events failed to load", "error", err)
	}

	if err := b.gw.Open(); err != nil {
		remove()
		return fmt.Errorf("open discord session: %w", err)
	}
	b.log.Info("Discord session opened")

	appID, err := b.userID()
	if err == nil {
		err = b.registry.Sync(b.gw, appID, b.opts.GuildID)
	}
	if err != nil {
		// leave nothing connected behind a failed start
		remove()
		if closeErr := b.gw.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close discord session: %w", closeErr))
		}
		return err
	}

	b.appID = appID
	b.removeHandlers = remove
	return nil
}

// Close removes published commands when configured and disconnects.
func (b *Bot) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.opts.RemoveCommands && b.appID != "" {
		if err := b.registry.Remove(b.gw, b.appID, b.opts.GuildID); err != nil {
			errs = append(errs, err)
		}
	}
	if b.removeHandlers != nil {
		b.removeHandlers()
		b.removeHandlers = nil
	}
	if err := b.gw.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close discord session: %w", err))
	}
	b.log.Info("Discord session closed")
	return errors.Join(errs...)
}
