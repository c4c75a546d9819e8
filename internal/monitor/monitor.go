package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

const (
	DefaultDailyReportSchedule = "0 9 * * *"
	DefaultInitialDelay        = 5 * time.Second

	// runTimeout bounds a single scheduled check or report.
	runTimeout = time.Minute
)

// Transition is an online/offline change observed between two poll cycles.
type Transition struct {
	Server    panel.Server `json:"server"`
	Online    bool         `json:"online"`
	WasOnline bool         `json:"was_online"`
	At        time.Time    `json:"at"`
}

type Fetcher interface {
	GetServerStatus(ctx context.Context) []panel.Server
	CachedServers() []panel.Server
}

type Notifier interface {
	NotifyTransition(ctx context.Context, t Transition) error
	SendReport(ctx context.Context, servers []panel.Server) error
}

// Recorder receives every transition after the notifier.
type Recorder interface {
	RecordTransition(ctx context.Context, t Transition) error
}

type Options struct {
	// IntervalMinutes between status checks.
	IntervalMinutes     int
	DailyReportSchedule string
	InitialDelay        time.Duration
	Location            *time.Location
	Recorders           []Recorder
}

type Monitor struct {
	log      *slog.Logger
	fetcher  Fetcher
	notifier Notifier
	opts     Options
	now      func() time.Time

	// checkMu serializes check cycles so scheduled and on-demand runs do not
	// interleave their diffs.
	checkMu  sync.Mutex
	mu       sync.Mutex
	previous map[string]bool
	running  bool
	cron     *cron.Cron
	initial  *time.Timer
}

func New(log *slog.Logger, fetcher Fetcher, notifier Notifier, opts Options) *Monitor {
	if opts.IntervalMinutes <= 0 {
		opts.IntervalMinutes = 5
	}
	if opts.DailyReportSchedule == "" {
		opts.DailyReportSchedule = DefaultDailyReportSchedule
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	return &Monitor{
		log:      log,
		fetcher:  fetcher,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		previous: make(map[string]bool),
	}
}

// ScheduleExpression turns a check interval into a cron expression.
// Minute steps only divide an hour, longer intervals use @every.
func ScheduleExpression(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("*/%d * * * *", minutes)
	}
	return fmt.Sprintf("@every %dm", minutes)
}

// Start schedules the periodic check and the daily report and runs a first
// check after the initial delay. Starting a running monitor is a no-op.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.log.Warn("Server monitoring is already running")
		return nil
	}

	c := cron.New(cron.WithLocation(m.opts.Location))

	checkExpr := ScheduleExpression(m.opts.IntervalMinutes)
	if _, err := c.AddFunc(checkExpr, m.scheduledCheck); err != nil {
		return fmt.Errorf("schedule status check %q: %w", checkExpr, err)
	}
	if _, err := c.AddFunc(m.opts.DailyReportSchedule, m.scheduledReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", m.opts.DailyReportSchedule, err)
	}

	c.Start()
	m.cron = c
	m.running = true
	m.initial = time.AfterFunc(m.opts.InitialDelay, m.scheduledCheck)

	m.log.Info("Server monitoring started",
		"intervalMinutes", m.opts.IntervalMinutes,
		"schedule", checkExpr,
		"dailyReport", m.opts.DailyReportSchedule)
	return nil
}

// Stop halts scheduling. Jobs already running are allowed to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	if m.initial != nil {
		m.initial.Stop()
		m.initial = nil
	}
	c := m.cron
	m.cron = nil
	m.running = false
	m.mu.Unlock()

	// running jobs take m.mu, so wait outside the lock
	<-c.Stop().Done()
	m.log.Info("Server monitoring stopped")
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) scheduledCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	m.CheckServers(ctx)
}

func (m *Monitor) scheduledReport() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	m.SendDailyReport(ctx)
}

// CheckServers fetches the current servers and emits one transition for
// every server whose online flag changed since the previous cycle.
// It returns the transitions it emitted.
func (m *Monitor) CheckServers(ctx context.Context) []Transition {
	m.checkMu.Lock()
	defer m.checkMu.Unlock()

	m.log.Debug("Checking server status...")

	servers := m.fetcher.GetServerStatus(ctx)
	if len(servers) == 0 {
		m.log.Warn("No servers found during status check")
		return nil
	}

	var transitions []Transition
	for _, srv := range servers {
		if t, changed := m.processServerStatus(srv); changed {
			m.emit(ctx, t)
			transitions = append(transitions, t)
		}
	}

	m.log.Debug("Server status check completed", "servers", len(servers), "transitions", len(transitions))
	return transitions
}

func (m *Monitor) processServerStatus(srv panel.Server) (Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, seen := m.previous[srv.ID]
	m.previous[srv.ID] = srv.Online

	if !seen || previous == srv.Online {
		return Transition{}, false
	}
	return Transition{
		Server:    srv,
		Online:    srv.Online,
		WasOnline: previous,
		At:        m.now(),
	}, true
}

func (m *Monitor) emit(ctx context.Context, t Transition) {
	if err := m.notifier.NotifyTransition(ctx, t); err != nil {
		m.log.Error("Error sending status notification", "server", t.Server.ID, "error", err)
	}

	for _, r := range m.opts.Recorders {
		if err := r.RecordTransition(ctx, t); err != nil {
			m.log.Error("Error recording status transition", "server", t.Server.ID, "error", err)
		}
	}
}

// PreviousState returns the last observed online flag of a server.
func (m *Monitor) PreviousState(id string) (online, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	online, known = m.previous[id]
	return online, known
}

// States returns a copy of the previous-state mapping.
func (m *Monitor) States() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]bool, len(m.previous))
	for id, online := range m.previous {
		out[id] = online
	}
	return out
}
