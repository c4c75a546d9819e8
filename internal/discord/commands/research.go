package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vnxcius/aternos-bot/internal/discord/embeds"
	"github.com/vnxcius/aternos-bot/internal/research"
)

// Researcher runs one browser research pass against the hosting panel.
type Researcher interface {
	Run(ctx context.Context) (research.Report, error)
}

// ResearcherFunc adapts a function to the Researcher interface.
type ResearcherFunc func(ctx context.Context) (research.Report, error)

func (f ResearcherFunc) Run(ctx context.Context) (research.Report, error) {
	return f(ctx)
}

func Research(r Researcher) *Command {
	return &Command{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "research",
			Description: "Research Aternos website structure (Developer only)",
		},
		Handler: func(ctx context.Context, s Session, i *discordgo.InteractionCreate) error {
			return handleResearch(ctx, s, i, r)
		},
		Developer: true,
	}
}

func handleResearch(ctx context.Context, s Session, i *discordgo.InteractionCreate, r Researcher) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		return fmt.Errorf("defer research reply: %w", err)
	}

	if err := editEmbed(s, i, embeds.ResearchStarted(time.Now())); err != nil {
		return err
	}

	report, runErr := r.Run(ctx)
	if runErr != nil {
		embed := embeds.Error("Research Failed", "Error: "+runErr.Error(), time.Now())
		return errors.Join(fmt.Errorf("research: %w", runErr), editEmbed(s, i, embed))
	}

	return editEmbed(s, i, embeds.ResearchResults(report, time.Now()))
}

func editEmbed(s Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return fmt.Errorf("edit %q reply: %w", embed.Title, err)
	}
	return nil
}
