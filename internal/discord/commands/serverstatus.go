package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vnxcius/aternos-bot/internal/discord/embeds"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

type StatusSource interface {
	FetchServers(ctx context.Context) ([]panel.Server, error)
}

func ServerStatus(source StatusSource) *Command {
	return &Command{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "serverstatus",
			Description: "Check the status of all Minecraft servers",
		},
		Handler: func(ctx context.Context, s Session, i *discordgo.InteractionCreate) error {
			return handleServerStatus(ctx, s, i, source)
		},
	}
}

func handleServerStatus(ctx context.Context, s Session, i *discordgo.InteractionCreate, source StatusSource) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return fmt.Errorf("defer serverstatus reply: %w", err)
	}

	var embed *discordgo.MessageEmbed
	servers, fetchErr := source.FetchServers(ctx)
	if fetchErr != nil {
		embed = embeds.Error("Error", "Failed to fetch server status. Please try again later.", time.Now())
	} else {
		embed = embeds.ServerList(servers, time.Now())
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if fetchErr != nil {
		return fmt.Errorf("fetch server status: %w", fetchErr)
	}
	if err != nil {
		return fmt.Errorf("edit serverstatus reply: %w", err)
	}
	return nil
}
