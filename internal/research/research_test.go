package research

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(cfg Config) *Session {
	return NewSession(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func TestAttemptLoginWithoutCredentials(t *testing.T) {
	s := newTestSession(Config{})
	assert.False(t, s.AttemptLogin())

	s = newTestSession(Config{Username: "user"})
	assert.False(t, s.AttemptLogin())
}

func TestAttemptLoginNotImplemented(t *testing.T) {
	s := newTestSession(Config{Username: "user", Password: "pass"})
	assert.False(t, s.AttemptLogin())
}

func TestRequiresInit(t *testing.T) {
	s := newTestSession(Config{URL: "https://aternos.org"})

	require.ErrorIs(t, s.NavigateToPanel(), ErrNotInitialized)

	_, err := s.ResearchLoginProcess()
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.ResearchServerManagement()
	require.ErrorIs(t, err, ErrNotInitialized)

	s.Cleanup()
	s.Cleanup()
}

func TestRunFailsOnCancelledContext(t *testing.T) {
	s := newTestSession(Config{URL: "https://aternos.org", Headless: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	require.Error(t, err)
	assert.Nil(t, s.ctx)
}
