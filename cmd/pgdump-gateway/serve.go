package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/pgdump-gateway/internal/metrics"
	"github.com/fgeck/pgdump-gateway/internal/server"
	"github.com/fgeck/pgdump-gateway/internal/services/export"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP export gateway",
	Long: `Start the HTTP server. Routes:
  GET|POST /export   stream a dump (subject, database, schema, table|view, what, output, ...)
  GET      /healthz  liveness probe, never authenticated
  GET      /metrics  Prometheus metrics (if enabled)

The server stops accepting requests on SIGINT/SIGTERM and waits for running
exports up to server.shutdown_timeout.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info().
		Str("config", configFile).
		Str("listen", cfg.Server.Listen).
		Int("servers", len(cfg.Profiles)).
		Bool("auth", cfg.Auth != nil).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("configuration loaded")

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		gatherer = reg
	}

	exportSvc := export.New(*cfg, log.Logger, m)
	handler := export.NewHandler(exportSvc, log.Logger)

	srv := server.New(*cfg, log.Logger, handler, gatherer)
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
