package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Setting keys for the daemon's durable runtime configuration.
const (
	keyPIN          = "security.pin"
	keyServerActive = "server.active"
	keyServerHost   = "server.host"
	keyServerPort   = "server.port"
	keyWebDir       = "server.web_dir"
)

// Defaults applied when the store holds no explicit values. The daemon binds
// the whole LAN by default; access control is the PIN gate, not the bind.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8000
)

// ServerConfig captures the HTTP transport settings of the daemon.
type ServerConfig struct {
	Host   string
	Port   int
	WebDir string
}

// GetServerConfig loads the HTTP transport settings, applying defaults for
// absent keys.
func (s *Store) GetServerConfig(ctx context.Context) (ServerConfig, error) {
	values, err := s.LoadSettings(ctx, keyServerHost, keyServerPort, keyWebDir)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		Host: DefaultHost,
		Port: DefaultPort,
	}
	if host := strings.TrimSpace(values[keyServerHost]); host != "" {
		cfg.Host = host
	}
	if raw := strings.TrimSpace(values[keyServerPort]); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("config: parse %s %q: %w", keyServerPort, raw, err)
		}
		cfg.Port = port
	}
	cfg.WebDir = strings.TrimSpace(values[keyWebDir])

	return cfg, nil
}

// SaveServerConfig persists the HTTP transport settings.
func (s *Store) SaveServerConfig(ctx context.Context, cfg ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("config: port must be between 0 and 65535")
	}
	return s.SaveSettings(ctx, map[string]string{
		keyServerHost: strings.TrimSpace(cfg.Host),
		keyServerPort: strconv.Itoa(cfg.Port),
		keyWebDir:     strings.TrimSpace(cfg.WebDir),
	})
}

// GetPIN returns the stored PIN, or "" when authentication is disabled.
func (s *Store) GetPIN(ctx context.Context) (string, error) {
	values, err := s.LoadSettings(ctx, keyPIN)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(values[keyPIN]), nil
}

// SavePIN persists the PIN. An empty or whitespace value clears it.
func (s *Store) SavePIN(ctx context.Context, pin string) error {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return s.DeleteSetting(ctx, keyPIN)
	}
	return s.SaveSettings(ctx, map[string]string{keyPIN: pin})
}

// GetServerActive returns the persisted server-enabled flag, defaulting to
// true when unset.
func (s *Store) GetServerActive(ctx context.Context) (bool, error) {
	values, err := s.LoadSettings(ctx, keyServerActive)
	if err != nil {
		return false, err
	}
	raw, ok := values[keyServerActive]
	if !ok {
		return true, nil
	}
	active, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("config: parse %s %q: %w", keyServerActive, raw, err)
	}
	return active, nil
}

// SaveServerActive persists the server-enabled flag.
func (s *Store) SaveServerActive(ctx context.Context, active bool) error {
	return s.SaveSettings(ctx, map[string]string{
		keyServerActive: strconv.FormatBool(active),
	})
}
