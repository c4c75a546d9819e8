package embeds

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vnxcius/aternos-bot/internal/panel"
	"github.com/vnxcius/aternos-bot/internal/research"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ColorOK    = 0x4ecdc4
	ColorError = 0xff6b6b

	FooterMonitor = "Aternos Server Monitor"
)

func StatusEmoji(online bool) string {
	if online {
		return "🟢"
	}
	return "🔴"
}

// StatusText title-cases a panel status label for display. Casers keep
// state, so one is built per call.
func StatusText(status string) string {
	return cases.Title(language.English).String(status)
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func playersValue(s panel.Server) string {
	if !s.Online {
		return "N/A"
	}
	return fmt.Sprintf("%d", s.Players)
}

// serverField renders one server as an inline field. Unnamed servers are
// labelled by position.
func serverField(s panel.Server, index int) *discordgo.MessageEmbedField {
	name := orDefault(s.Name, fmt.Sprintf("Server %d", index+1))
	return &discordgo.MessageEmbedField{
		Name: fmt.Sprintf("%s %s", StatusEmoji(s.Online), name),
		Value: fmt.Sprintf("**Status:** %s\n**Players:** %s\n**Version:** %s",
			StatusText(s.Status()),
			playersValue(s),
			orDefault(s.Version, "Unknown"),
		),
		Inline: true,
	}
}

// StatusChange is posted to the notification channel on a transition.
func StatusChange(s panel.Server, online bool, at time.Time) *discordgo.MessageEmbed {
	change := "went offline"
	color := ColorError
	if online {
		change = "came online"
		color = ColorOK
	}

	embed := &discordgo.MessageEmbed{
		Color:       color,
		Title:       fmt.Sprintf("%s Server Status Change", StatusEmoji(online)),
		Description: fmt.Sprintf("**%s** has %s!", s.Name, change),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: StatusText(panel.StatusLabel(online)), Inline: true},
			{Name: "Server IP", Value: orDefault(s.IP, "N/A"), Inline: true},
			{Name: "Version", Value: orDefault(s.Version, "Unknown"), Inline: true},
		},
		Timestamp: timestamp(at),
		Footer:    &discordgo.MessageEmbedFooter{Text: FooterMonitor},
	}

	if online {
		maxPlayers := "N/A"
		if s.MaxPlayers > 0 {
			maxPlayers = fmt.Sprintf("%d", s.MaxPlayers)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Players Online",
			Value:  fmt.Sprintf("%d/%s", s.Players, maxPlayers),
			Inline: true,
		})
	}
	return embed
}

// ServerList answers the serverstatus command.
func ServerList(servers []panel.Server, at time.Time) *discordgo.MessageEmbed {
	if len(servers) == 0 {
		return &discordgo.MessageEmbed{
			Color:       ColorError,
			Title:       "🔍 Server Status",
			Description: "No servers found or unable to fetch server data.",
			Timestamp:   timestamp(at),
		}
	}

	embed := &discordgo.MessageEmbed{
		Color:       ColorOK,
		Title:       "🖥️ Minecraft Server Status",
		Description: "Current status of all your Aternos servers:",
		Timestamp:   timestamp(at),
		Footer:      &discordgo.MessageEmbedFooter{Text: FooterMonitor},
	}
	for i, s := range servers {
		embed.Fields = append(embed.Fields, serverField(s, i))
	}
	return embed
}

func DailyReport(servers []panel.Server, at time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Color:       ColorOK,
		Title:       "📊 Daily Server Report",
		Description: "Here's the current status of all your Minecraft servers:",
		Timestamp:   timestamp(at),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Daily Report - " + FooterMonitor},
	}
	for i, s := range servers {
		embed.Fields = append(embed.Fields, serverField(s, i))
	}
	return embed
}

func Pong(roundtrip, heartbeat time.Duration, at time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color: ColorOK,
		Title: "🏓 Pong!",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Roundtrip latency", Value: fmt.Sprintf("%dms", roundtrip.Milliseconds()), Inline: true},
			{Name: "Websocket heartbeat", Value: fmt.Sprintf("%dms", heartbeat.Milliseconds()), Inline: true},
		},
		Timestamp: timestamp(at),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Bot Status Check"},
	}
}

// Error is the degraded reply shown when a command fails.
func Error(title, description string, at time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorError,
		Title:       "❌ " + title,
		Description: description,
		Timestamp:   timestamp(at),
	}
}

func ResearchStarted(at time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorOK,
		Title:       "🔬 Aternos Research",
		Description: "Starting research of Aternos website structure...",
		Timestamp:   timestamp(at),
	}
}

func ResearchResults(report research.Report, at time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorOK,
		Title:       "🔬 Aternos Research Results",
		Description: "Research completed! Check the logs for detailed information.",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🔐 Login Elements Found",
				Value: fmt.Sprintf("Login Buttons: %d\nUsername Inputs: %d\nPassword Inputs: %d",
					len(report.Login.LoginButtons),
					len(report.Login.UsernameInputs),
					len(report.Login.PasswordInputs),
				),
				Inline: true,
			},
			{
				Name: "🖥️ Server Elements Found",
				Value: fmt.Sprintf("Server Cards: %d\nStatus Elements: %d",
					len(report.Servers.ServerCards),
					len(report.Servers.ServerStatus),
				),
				Inline: true,
			},
			{
				Name: "📝 Next Steps",
				Value: fmt.Sprintf("1. Check bot logs for detailed element info\n2. Analyze screenshot: `%s`\n3. Implement login logic\n4. Build server status extraction",
					orDefault(report.ScreenshotPath, "none"),
				),
			},
		},
		Timestamp: timestamp(at),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Research Phase - Aternos Integration"},
	}
}
