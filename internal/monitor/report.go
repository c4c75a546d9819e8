package monitor

import (
	"context"

	"github.com/samber/lo"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

// SendDailyReport posts the cached server list. It never triggers a fetch.
func (m *Monitor) SendDailyReport(ctx context.Context) {
	servers := m.fetcher.CachedServers()
	if len(servers) == 0 {
		m.log.Warn("No servers available for daily report")
		return
	}

	if err := m.notifier.SendReport(ctx, servers); err != nil {
		m.log.Error("Error sending daily report", "error", err)
		return
	}

	online := lo.CountBy(servers, func(s panel.Server) bool { return s.Online })
	m.log.Info("Daily server report sent", "servers", len(servers), "online", online)
}
