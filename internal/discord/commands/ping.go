package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vnxcius/aternos-bot/internal/discord/embeds"
)

func Ping() *Command {
	return &Command{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "ping",
			Description: "Check bot latency and status",
		},
		Handler: handlePing,
	}
}

func handlePing(_ context.Context, s Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: "Pinging..."},
	})
	if err != nil {
		return fmt.Errorf("send ping reply: %w", err)
	}

	sent, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		return fmt.Errorf("fetch ping reply: %w", err)
	}

	created, err := discordgo.SnowflakeTimestamp(i.ID)
	if err != nil {
		return fmt.Errorf("parse interaction id: %w", err)
	}

	embed := embeds.Pong(sent.Timestamp.Sub(created), s.HeartbeatLatency(), time.Now())
	content := ""
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return fmt.Errorf("edit ping reply: %w", err)
	}
	return nil
}
