package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vnxcius/aternos-bot/internal/discord/embeds"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

// MessageSender is implemented by *discordgo.Session.
type MessageSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelNotifier posts monitor output to a single text channel.
type ChannelNotifier struct {
	log       *slog.Logger
	sender    MessageSender
	channelID string
}

func NewChannelNotifier(log *slog.Logger, sender MessageSender, channelID string) *ChannelNotifier {
	return &ChannelNotifier{log: log, sender: sender, channelID: channelID}
}

func (n *ChannelNotifier) NotifyTransition(ctx context.Context, t monitor.Transition) error {
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	return n.send(ctx, "status change", embeds.StatusChange(t.Server, t.Online, at))
}

func (n *ChannelNotifier) SendReport(ctx context.Context, servers []panel.Server) error {
	return n.send(ctx, "daily report", embeds.DailyReport(servers, time.Now()))
}

func (n *ChannelNotifier) send(ctx context.Context, kind string, embed *discordgo.MessageEmbed) error {
	if n.sender == nil || n.channelID == "" {
		n.log.Warn("Notification channel not configured, skipping", "kind", kind)
		return nil
	}

	_, err := n.sender.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send %s to channel %s: %w", kind, n.channelID, err)
	}
	n.log.Info("Sent notification", "kind", kind, "channel", n.channelID)
	return nil
}
