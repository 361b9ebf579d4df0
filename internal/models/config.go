// Package models contains the data structures used throughout pgdump-gateway.
package models

import "time"

// Config holds the complete gateway configuration.
type Config struct {
	Server          ServerSettings
	Auth            *AuthConfig // nil if not configured
	Metrics         MetricsSettings
	VersionCacheTTL time.Duration // 0 disables caching of version probes
	Profiles        []ServerProfile
	Telegram        *TelegramConfig // nil if not configured
}

// ServerSettings holds HTTP listener settings.
type ServerSettings struct {
	Listen            string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// AuthConfig holds HTTP basic auth credentials.
type AuthConfig struct {
	Username     string
	PasswordHash string // bcrypt hash
}

// MetricsSettings controls the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool
	Path    string
}

// Profile returns the server profile with the given name.
// An empty name selects the first configured profile.
func (c *Config) Profile(name string) (*ServerProfile, bool) {
	if len(c.Profiles) == 0 {
		return nil, false
	}
	if name == "" {
		return &c.Profiles[0], true
	}
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], true
		}
	}
	return nil, false
}
