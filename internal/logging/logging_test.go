package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/panel"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDailyFileRotates(t *testing.T) {
	dir := t.TempDir()
	f, err := NewDailyFile(dir, time.UTC)
	require.NoError(t, err)
	defer f.Close()

	day := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	f.now = func() time.Time { return day }

	_, err = f.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = f.Write([]byte("third\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-05-02.log"), f.Path())

	first, err := os.ReadFile(filepath.Join(dir, "2024-05-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "2024-05-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(second))
}

func TestDailyFileAppends(t *testing.T) {
	dir := t.TempDir()
	today := time.Now().Format(dateLayout)
	path := filepath.Join(dir, today+".log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	f, err := NewDailyFile(dir, time.Local)
	require.NoError(t, err)
	_, err = f.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nnew\n", string(data))
}

func TestNewLoggerWritesTimestampedLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelInfo, time.UTC)

	log.Debug("hidden")
	log.Info("Bot is ready", "user", "bot#0001")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Bot is ready", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])

	_, err := time.Parse(time.RFC3339, entry["time"].(string))
	assert.NoError(t, err)
}

func TestStatusChangelog(t *testing.T) {
	dir := t.TempDir()
	c, err := NewStatusChangelog(dir, time.UTC)
	require.NoError(t, err)
	defer c.Close()

	at := time.Now()
	require.NoError(t, c.RecordTransition(context.Background(), monitor.Transition{
		Server:    panel.Server{ID: "server1", Name: "My Minecraft Server", Players: 3},
		Online:    true,
		WasOnline: false,
		At:        at,
	}))
	require.NoError(t, c.RecordTransition(context.Background(), monitor.Transition{
		Server:    panel.Server{ID: "server1", Name: "My Minecraft Server"},
		Online:    false,
		WasOnline: true,
		At:        at,
	}))

	entries, err := c.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ServerCameOnline, entries[0].Type)
	assert.Equal(t, 3, entries[0].Players)
	assert.Equal(t, ServerWentOffline, entries[1].Type)
	assert.Equal(t, "server1", entries[1].ServerID)
}
