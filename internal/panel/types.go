package panel

import (
	"net"
	"strconv"
	"time"
)

// Server is a single game server as reported by the hosting panel.
type Server struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Online     bool   `json:"online"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	Version    string `json:"version"`
	IP         string `json:"ip"`
	Port       int    `json:"port"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// StatusLabel returns the panel's lower-case label for a server state.
func StatusLabel(online bool) string {
	if online {
		return StatusOnline
	}
	return StatusOffline
}

func (s Server) Status() string {
	return StatusLabel(s.Online)
}

// Address returns host:port, or just the host when no port is known.
func (s Server) Address() string {
	if s.IP == "" {
		return ""
	}
	if s.Port == 0 {
		return s.IP
	}
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

type Session struct {
	ID            string
	Authenticated bool
	CreatedAt     time.Time
}
