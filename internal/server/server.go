// Package server exposes the export handler over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the gateway HTTP server.
type Server struct {
	cfg      models.Config
	export   http.Handler
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
}

// New creates a server. gatherer may be nil when metrics are disabled.
func New(cfg models.Config, logger zerolog.Logger, export http.Handler, gatherer prometheus.Gatherer) *Server {
	return &Server{
		cfg:      cfg,
		export:   export,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Handler returns the routed handler with logging and authentication applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	protected := http.NewServeMux()
	protected.Handle("GET /export", s.export)
	protected.Handle("POST /export", s.export)
	if s.cfg.Metrics.Enabled && s.gatherer != nil {
		protected.Handle("GET "+s.cfg.Metrics.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	var guarded http.Handler = protected
	if s.cfg.Auth != nil {
		guarded = basicAuth(*s.cfg.Auth, s.logger)(protected)
	}
	mux.Handle("/", guarded)

	return accessLog(s.logger)(mux)
}

// Run serves until ctx is cancelled, then drains open requests for up to the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// No WriteTimeout: dumps stream for as long as pg_dump runs.
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", ln.Addr().String()).Msg("serving exports")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Dur("timeout", s.cfg.Server.ShutdownTimeout).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}
