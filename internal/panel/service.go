package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStaleAfter is how old cached data may get before IsDataStale reports it.
const DefaultStaleAfter = 5 * time.Minute

var (
	ErrAuthentication = errors.New("aternos authentication failed")
	ErrFetch          = errors.New("failed to fetch server data")
)

// Service talks to the hosting panel. Until the panel exposes an API the
// fetch layer returns randomized mock servers.
type Service struct {
	log      *slog.Logger
	username string
	password string

	mu         sync.Mutex
	session    *Session
	servers    []Server
	lastUpdate time.Time
	rand       *rand.Rand
	now        func() time.Time
}

type Option func(*Service)

// WithRand replaces the random source used to generate mock data.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		s.rand = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(log *slog.Logger, username, password string, opts ...Option) *Service {
	s := &Service{
		log:      log,
		username: username,
		password: password,
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate establishes a panel session.
func (s *Service) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticate(ctx)
}

func (s *Service) authenticate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	s.log.Info("Attempting to authenticate with Aternos...")

	// The credentials are not sent anywhere yet, the session is mocked.
	s.session = &Session{
		ID:            "mock_session_" + uuid.NewString(),
		Authenticated: true,
		CreatedAt:     s.now(),
	}

	s.log.Info("Successfully authenticated with Aternos", "session", s.session.ID)
	return nil
}

// FetchServers refreshes and returns the server list.
func (s *Service) FetchServers(ctx context.Context) ([]Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || !s.session.Authenticated {
		if err := s.authenticate(ctx); err != nil {
			s.log.Error("Failed to fetch servers from Aternos", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	s.log.Debug("Fetching servers from Aternos...")

	s.servers = s.mockServers()
	s.lastUpdate = s.now()

	s.log.Debug("Fetched servers from Aternos", "count", len(s.servers))
	return slices.Clone(s.servers), nil
}

func (s *Service) mockServers() []Server {
	return []Server{
		{
			ID:         "server1",
			Name:       "My Minecraft Server",
			Online:     s.rand.Float64() > 0.5,
			Players:    s.rand.IntN(10),
			MaxPlayers: 20,
			Version:    "1.20.1",
			IP:         "server1.aternos.me",
			Port:       25565,
		},
		{
			ID:         "server2",
			Name:       "Creative World",
			Online:     s.rand.Float64() > 0.7,
			Players:    s.rand.IntN(5),
			MaxPlayers: 10,
			Version:    "1.19.4",
			IP:         "server2.aternos.me",
			Port:       25565,
		},
	}
}

// GetServerStatus fetches the current server list. Failures are logged and
// reported as an empty list.
func (s *Service) GetServerStatus(ctx context.Context) []Server {
	servers, err := s.FetchServers(ctx)
	if err != nil {
		s.log.Error("Error getting server status", "error", err)
		return []Server{}
	}
	return servers
}

// GetServerByID fetches the server list and returns the server with id.
func (s *Service) GetServerByID(ctx context.Context, id string) (Server, bool) {
	servers, err := s.FetchServers(ctx)
	if err != nil {
		s.log.Error("Error getting server", "id", id, "error", err)
		return Server{}, false
	}

	i := slices.IndexFunc(servers, func(srv Server) bool { return srv.ID == id })
	if i < 0 {
		return Server{}, false
	}
	return servers[i], true
}

// IsDataStale reports whether the cache was never filled or is older than maxAge.
func (s *Service) IsDataStale(maxAge time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastUpdate.IsZero() {
		return true
	}
	return s.now().Sub(s.lastUpdate) > maxAge
}

// CachedServers returns the list from the last successful fetch.
func (s *Service) CachedServers() []Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.servers)
}

func (s *Service) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}
