package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// handlerTimeout bounds a single command invocation.
const handlerTimeout = 2 * time.Minute

var (
	ErrInvalidCommand   = errors.New(`command is missing required "name" or "handler"`)
	ErrDuplicateCommand = errors.New("command already registered")
)

// Session is the subset of *discordgo.Session command handlers use.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponse(interaction *discordgo.Interaction, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	HeartbeatLatency() time.Duration
}

// CommandSyncer is the subset of *discordgo.Session used to publish commands.
type CommandSyncer interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

type Handler func(ctx context.Context, s Session, i *discordgo.InteractionCreate) error

type Command struct {
	*discordgo.ApplicationCommand
	Handler Handler
	// Developer restricts the command to the configured developer user IDs.
	Developer bool
}

type Registry struct {
	log        *slog.Logger
	developers []string

	mu         sync.RWMutex
	commands   map[string]*Command
	registered []*discordgo.ApplicationCommand
}

func NewRegistry(log *slog.Logger, developers []string) *Registry {
	return &Registry{
		log:        log,
		developers: developers,
		commands:   make(map[string]*Command),
	}
}

// Register adds commands to the registry. Invalid or duplicate commands are
// skipped and reported in the returned error.
func (r *Registry) Register(cmds ...*Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, cmd := range cmds {
		if cmd == nil || cmd.ApplicationCommand == nil || cmd.Name == "" || cmd.Handler == nil {
			r.log.Warn("Skipping invalid command")
			errs = append(errs, ErrInvalidCommand)
			continue
		}
		if _, ok := r.commands[cmd.Name]; ok {
			r.log.Warn("Skipping duplicate command", "name", cmd.Name)
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name))
			continue
		}

		r.commands[cmd.Name] = cmd
		r.log.Info("Loaded command", "name", cmd.Name)
	}

	r.log.Info("Loaded commands", "count", len(r.commands))
	return errors.Join(errs...)
}

func (r *Registry) Get(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// ApplicationCommands returns the command definitions sorted by name.
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.MapToSlice(r.commands, func(_ string, c *Command) *discordgo.ApplicationCommand {
		return c.ApplicationCommand
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) IsDeveloper(userID string) bool {
	return userID != "" && lo.Contains(r.developers, userID)
}

// HandleInteraction is the discordgo event handler for interactions.
func (r *Registry) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	r.Dispatch(s, i)
}

// Dispatch routes an application command interaction to its handler.
func (r *Registry) Dispatch(s Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := r.Get(name)
	if !ok {
		r.log.Warn("No command matching interaction", "name", name)
		return
	}

	userID := InteractionUserID(i)
	if cmd.Developer && !r.IsDeveloper(userID) {
		r.log.Info("Refused developer command", "name", name, "user", userID)
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "❌ This command is only available for developers.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			r.log.Error("Failed sending developer-only response", "error", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := cmd.Handler(ctx, s, i); err != nil {
		r.log.Error("Error executing command", "name", name, "user", userID, "error", err)
	}
}

// Sync publishes the registered commands, replacing whatever was there.
func (r *Registry) Sync(s CommandSyncer, appID, guildID string) error {
	cmds := r.ApplicationCommands()

	r.log.Info("Adding commands...", "count", len(cmds), "guild", guildID)
	registered, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		return fmt.Errorf("register application commands: %w", err)
	}

	r.mu.Lock()
	r.registered = registered
	r.mu.Unlock()

	r.log.Info("Commands added successfully.")
	return nil
}

// Remove deletes the commands published by Sync.
func (r *Registry) Remove(s CommandSyncer, appID, guildID string) error {
	r.mu.Lock()
	registered := r.registered
	r.registered = nil
	r.mu.Unlock()

	r.log.Info("Removing commands...")
	var errs []error
	for _, cmd := range registered {
		r.log.Info("Removing command", "name", cmd.Name)
		if err := s.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete command %s: %w", cmd.Name, err))
		}
	}
	return errors.Join(errs...)
}

// InteractionUserID returns the invoking user for guild and DM interactions.
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
