package events

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdder struct {
	always  []any
	once    []any
	removed int
}

func (f *fakeAdder) AddHandler(h any) func() {
	f.always = append(f.always, h)
	return func() { f.removed++ }
}

func (f *fakeAdder) AddHandlerOnce(h any) func() {
	f.once = append(f.once, h)
	return func() { f.removed++ }
}

type fakePresence struct {
	updates []discordgo.UpdateStatusData
	err     error
}

func (f *fakePresence) UpdateStatusComplex(usd discordgo.UpdateStatusData) error {
	f.updates = append(f.updates, usd)
	return f.err
}

type fakeStarter struct {
	calls int
	err   error
}

func (f *fakeStarter) Start() error {
	f.calls++
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad(t *testing.T) {
	adder := &fakeAdder{}
	noop := func(*discordgo.Session, *discordgo.Ready) {}

	remove, err := Load(discardLogger(), adder,
		Event{Name: "ready", Handler: noop},
		Event{Name: "guildCreate", Once: true, Handler: func(*discordgo.Session, *discordgo.GuildCreate) {}},
		Event{Name: "broken"},
		Event{Handler: noop},
	)
	require.ErrorIs(t, err, ErrInvalidEvent)
	assert.Len(t, adder.always, 1)
	assert.Len(t, adder.once, 1)

	remove()
	assert.Equal(t, 2, adder.removed)
}

func TestReadySetsPresenceAndStartsOnce(t *testing.T) {
	starter := &fakeStarter{}
	h := &readyHandler{log: discardLogger(), starter: starter}
	s := &fakePresence{}
	r := &discordgo.Ready{User: &discordgo.User{Username: "bot"}, Guilds: []*discordgo.Guild{{ID: "1"}}}

	h.handle(s, r)
	h.handle(s, r)

	assert.Equal(t, 1, starter.calls)
	require.Len(t, s.updates, 2)
	activity := s.updates[0].Activities[0]
	assert.Equal(t, discordgo.ActivityTypeWatching, activity.Type)
	assert.Equal(t, "Minecraft servers on Aternos", activity.Name)
}

func TestReadyToleratesFailures(t *testing.T) {
	starter := &fakeStarter{err: errors.New("bad schedule")}
	h := &readyHandler{log: discardLogger(), starter: starter}

	h.handle(&fakePresence{err: errors.New("closed")}, &discordgo.Ready{})
	assert.Equal(t, 1, starter.calls)
}

func TestReadyEventShape(t *testing.T) {
	ev := Ready(discardLogger(), nil)
	assert.Equal(t, "ready", ev.Name)
	assert.False(t, ev.Once)
	assert.IsType(t, func(*discordgo.Session, *discordgo.Ready) {}, ev.Handler)
}
