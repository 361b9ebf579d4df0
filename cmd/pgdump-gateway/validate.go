package main

import (
	"fmt"
	"os"

	"github.com/fgeck/pgdump-gateway/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without starting the server or running any dump.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	// Check if file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Server:")
	fmt.Printf("  Listen: %s\n", cfg.Server.Listen)
	fmt.Printf("  Read header timeout: %s\n", cfg.Server.ReadHeaderTimeout)
	fmt.Printf("  Shutdown timeout: %s\n", cfg.Server.ShutdownTimeout)
	fmt.Printf("  Version cache TTL: %s\n", cfg.VersionCacheTTL)
	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  Basic auth: %v\n", cfg.Auth != nil)
	fmt.Printf("  Metrics: %v\n", cfg.Metrics.Enabled)
	fmt.Printf("  Telegram: %v\n", cfg.Telegram != nil)

	for _, p := range cfg.Profiles {
		fmt.Println()
		fmt.Printf("PostgreSQL Server %q:\n", p.Name)
		if p.Host != "" {
			fmt.Printf("  Host: %s\n", p.Host)
		} else {
			fmt.Println("  Host: (libpq default)")
		}
		if p.Port != 0 {
			fmt.Printf("  Port: %d\n", p.Port)
		}
		fmt.Printf("  Username: %s\n", p.Username)
		fmt.Printf("  pg_dump: %s\n", orDisabled(p.PgDumpPath))
		fmt.Printf("  pg_dumpall: %s\n", orDisabled(p.PgDumpAllPath))
	}

	if cfg.Auth != nil {
		fmt.Println()
		fmt.Println("Auth Configuration:")
		fmt.Printf("  Username: %s\n", cfg.Auth.Username)
		fmt.Printf("  Password Hash: (configured)\n")
	}

	if cfg.Metrics.Enabled {
		fmt.Println()
		fmt.Println("Metrics Configuration:")
		fmt.Printf("  Path: %s\n", cfg.Metrics.Path)
	}

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	return nil
}

func orDisabled(path string) string {
	if path == "" {
		return "(disabled)"
	}
	return path
}
