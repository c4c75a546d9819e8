package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

type fakeFetcher struct {
	mu     sync.Mutex
	polls  [][]panel.Server
	cached []panel.Server
}

func (f *fakeFetcher) GetServerStatus(ctx context.Context) []panel.Server {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.polls) == 0 {
		return nil
	}
	next := f.polls[0]
	f.polls = f.polls[1:]
	f.cached = next
	return next
}

func (f *fakeFetcher) CachedServers() []panel.Server {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached
}

type fakeNotifier struct {
	mu          sync.Mutex
	transitions []Transition
	reports     [][]panel.Server
	err         error
}

func (n *fakeNotifier) NotifyTransition(ctx context.Context, t Transition) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, t)
	return n.err
}

func (n *fakeNotifier) SendReport(ctx context.Context, servers []panel.Server) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, servers)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.transitions)
}

type fakeRecorder struct {
	transitions []Transition
}

func (r *fakeRecorder) RecordTransition(ctx context.Context, t Transition) error {
	r.transitions = append(r.transitions, t)
	return nil
}

func srv(id string, online bool) panel.Server {
	return panel.Server{ID: id, Name: id, Online: online, MaxPlayers: 20}
}

func newTestMonitor(f Fetcher, n Notifier, opts Options) *Monitor {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, f, n, opts)
}

func TestFirstObservationIsSilent(t *testing.T) {
	f := &fakeFetcher{polls: [][]panel.Server{{srv("a", true), srv("b", false)}}}
	n := &fakeNotifier{}
	m := newTestMonitor(f, n, Options{})

	got := m.CheckServers(context.Background())
	assert.Empty(t, got)
	assert.Equal(t, 0, n.count())

	online, known := m.PreviousState("a")
	assert.True(t, known)
	assert.True(t, online)
}

func TestOnlineToOfflineNotifiesOnce(t *testing.T) {
	f := &fakeFetcher{polls: [][]panel.Server{
		{srv("a", true)},
		{srv("a", false)},
		{srv("a", false)},
	}}
	n := &fakeNotifier{}
	r := &fakeRecorder{}
	m := newTestMonitor(f, n, Options{Recorders: []Recorder{r}})

	m.CheckServers(context.Background())
	got := m.CheckServers(context.Background())
	m.CheckServers(context.Background())

	require.Len(t, got, 1)
	require.Equal(t, 1, n.count())
	assert.False(t, n.transitions[0].Online)
	assert.True(t, n.transitions[0].WasOnline)
	assert.Equal(t, "a", n.transitions[0].Server.ID)
	assert.Len(t, r.transitions, 1)
}

func TestOfflineToOnlineAndBack(t *testing.T) {
	f := &fakeFetcher{polls: [][]panel.Server{
		{srv("a", false), srv("b", true)},
		{srv("a", true), srv("b", true)},
		{srv("a", false), srv("b", false)},
	}}
	n := &fakeNotifier{}
	m := newTestMonitor(f, n, Options{})

	for range 3 {
		m.CheckServers(context.Background())
	}

	require.Equal(t, 3, n.count())
	assert.Equal(t, "a", n.transitions[0].Server.ID)
	assert.True(t, n.transitions[0].Online)
	assert.False(t, n.transitions[1].Online)
	assert.False(t, n.transitions[2].Online)
	assert.Equal(t, map[string]bool{"a": false, "b": false}, m.States())
}

func TestEmptyPollKeepsState(t *testing.T) {
	f := &fakeFetcher{polls: [][]panel.Server{
		{srv("a", true)},
		{},
		{srv("a", true)},
	}}
	n := &fakeNotifier{}
	m := newTestMonitor(f, n, Options{})

	for range 3 {
		m.CheckServers(context.Background())
	}
	assert.Equal(t, 0, n.count())
}

func TestNotifierErrorDoesNotStopState(t *testing.T) {
	f := &fakeFetcher{polls: [][]panel.Server{{srv("a", true)}, {srv("a", false)}}}
	n := &fakeNotifier{err: errors.New("discord down")}
	r := &fakeRecorder{}
	m := newTestMonitor(f, n, Options{Recorders: []Recorder{r}})

	m.CheckServers(context.Background())
	m.CheckServers(context.Background())

	online, _ := m.PreviousState("a")
	assert.False(t, online)
	assert.Len(t, r.transitions, 1)
}

func TestSendDailyReportUsesCache(t *testing.T) {
	f := &fakeFetcher{}
	n := &fakeNotifier{}
	m := newTestMonitor(f, n, Options{})

	m.SendDailyReport(context.Background())
	assert.Empty(t, n.reports)

	f.cached = []panel.Server{srv("a", true)}
	m.SendDailyReport(context.Background())
	require.Len(t, n.reports, 1)
	assert.Equal(t, "a", n.reports[0][0].ID)
	assert.Empty(t, f.polls)
}

func TestScheduleExpression(t *testing.T) {
	assert.Equal(t, "*/5 * * * *", ScheduleExpression(5))
	assert.Equal(t, "*/1 * * * *", ScheduleExpression(1))
	assert.Equal(t, "@every 90m", ScheduleExpression(90))
}

func TestNewAppliesDefaults(t *testing.T) {
	m := newTestMonitor(&fakeFetcher{}, &fakeNotifier{}, Options{InitialDelay: -time.Second})
	assert.Equal(t, DefaultInitialDelay, m.opts.InitialDelay)
	assert.Equal(t, 5, m.opts.IntervalMinutes)
	assert.Equal(t, DefaultDailyReportSchedule, m.opts.DailyReportSchedule)
	assert.Equal(t, time.Local, m.opts.Location)

	m = newTestMonitor(&fakeFetcher{}, &fakeNotifier{}, Options{})
	assert.Equal(t, DefaultInitialDelay, m.opts.InitialDelay)
}

func TestStartRunsInitialCheck(t *testing.T) {
	f := &fakeFetcher{polls: [][]panel.Server{{srv("a", true)}}}
	n := &fakeNotifier{}
	m := newTestMonitor(f, n, Options{InitialDelay: time.Millisecond})

	require.NoError(t, m.Start())
	require.NoError(t, m.Start())
	assert.True(t, m.Running())

	require.Eventually(t, func() bool {
		_, known := m.PreviousState("a")
		return known
	}, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
	assert.False(t, m.Running())
}

func TestStartRejectsBadReportSchedule(t *testing.T) {
	m := newTestMonitor(&fakeFetcher{}, &fakeNotifier{}, Options{DailyReportSchedule: "not a schedule"})
	require.Error(t, m.Start())
	assert.False(t, m.Running())
}
