// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/spf13/viper"
)

// Defaults applied when a key is absent.
const (
	DefaultListen            = ":8080"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMetricsPath       = "/metrics"
	DefaultVersionCacheTTL   = 5 * time.Minute
	DefaultProfileName       = "default"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// rawProfile mirrors one entry of the servers list.
type rawProfile struct {
	Name          string `mapstructure:"name"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	PgDumpPath    string `mapstructure:"pg_dump_path"`
	PgDumpAllPath string `mapstructure:"pg_dumpall_path"`
}

//nolint:gocognit,gocyclo // parsing config requires checking many fields
func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{}

	// Parse HTTP listener settings.
	cfg.Server = models.ServerSettings{
		Listen:            p.v.GetString("server.listen"),
		ReadHeaderTimeout: p.v.GetDuration("server.read_header_timeout"),
		ShutdownTimeout:   p.v.GetDuration("server.shutdown_timeout"),
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Parse metrics settings, enabled unless turned off.
	cfg.Metrics = models.MetricsSettings{
		Enabled: true,
		Path:    p.v.GetString("metrics.path"),
	}
	if p.v.IsSet("metrics.enabled") {
		cfg.Metrics.Enabled = p.v.GetBool("metrics.enabled")
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return nil, fmt.Errorf("metrics.path must start with /")
	}

	// Parse version cache TTL, 0 disables the cache.
	cfg.VersionCacheTTL = DefaultVersionCacheTTL
	if p.v.IsSet("version_cache_ttl") {
		cfg.VersionCacheTTL = p.v.GetDuration("version_cache_ttl")
	}
	if cfg.VersionCacheTTL < 0 {
		return nil, fmt.Errorf("version_cache_ttl must not be negative")
	}

	// Parse optional basic auth.
	if p.v.IsSet("auth") {
		cfg.Auth = &models.AuthConfig{
			Username:     p.expandEnv(p.v.GetString("auth.username")),
			PasswordHash: p.v.GetString("auth.password_hash"), // bcrypt hashes contain $
		}

		if cfg.Auth.Username == "" {
			return nil, fmt.Errorf("auth.username is required when auth is configured")
		}
		if !strings.HasPrefix(cfg.Auth.PasswordHash, "$2") {
			return nil, fmt.Errorf("auth.password_hash must be a bcrypt hash")
		}
	}

	// Parse server profiles (required).
	var raws []rawProfile
	if err := p.v.UnmarshalKey("servers", &raws); err != nil {
		return nil, fmt.Errorf("parsing servers: %w", err)
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("servers is required")
	}

	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		profile := models.ServerProfile{
			Name:          raw.Name,
			Host:          raw.Host,
			Port:          raw.Port,
			Username:      p.expandEnv(raw.Username),
			Password:      p.expandEnv(raw.Password),
			PgDumpPath:    p.expandEnv(raw.PgDumpPath),
			PgDumpAllPath: p.expandEnv(raw.PgDumpAllPath),
		}

		if profile.Name == "" {
			if len(raws) > 1 {
				return nil, fmt.Errorf("servers[%d].name is required when more than one server is configured", i)
			}
			profile.Name = DefaultProfileName
		}
		if seen[profile.Name] {
			return nil, fmt.Errorf("servers[%d].name %q is not unique", i, profile.Name)
		}
		seen[profile.Name] = true

		if profile.Port < 0 || profile.Port > 65535 {
			return nil, fmt.Errorf("servers[%d].port %d is out of range", i, profile.Port)
		}
		if profile.Username == "" {
			profile.Username = "postgres"
		}
		if profile.PgDumpPath == "" && profile.PgDumpAllPath == "" {
			return nil, fmt.Errorf("servers[%d]: at least one of pg_dump_path or pg_dumpall_path is required", i)
		}

		cfg.Profiles = append(cfg.Profiles, profile)
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if len(cfg.Profiles) == 0 {
		return fmt.Errorf("servers is required")
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	return nil
}
