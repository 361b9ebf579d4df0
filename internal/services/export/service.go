// Package export turns export requests into streamed PostgreSQL dumps.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/fgeck/pgdump-gateway/internal/metrics"
	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/fgeck/pgdump-gateway/internal/services/pgdump"
	"github.com/fgeck/pgdump-gateway/internal/services/telegram"
	"github.com/rs/zerolog"
)

// Service defines the interface for export operations.
type Service interface {
	Prepare(ctx context.Context, req models.ExportRequest) (*Plan, error)
	Run(ctx context.Context, plan *Plan, w io.Writer) *models.ExportResult
}

// Plan is a checked export, ready to run.
type Plan struct {
	Request models.ExportRequest
	Profile models.ServerProfile
	Version *semver.Version
	Command models.DumpCommand
}

// Impl implements the export Service interface.
type Impl struct {
	cfg         models.Config
	dumpSvc     pgdump.Service
	telegramSvc telegram.Service
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// New creates a new export service. m may be nil.
func New(cfg models.Config, logger zerolog.Logger, m *metrics.Metrics) *Impl {
	return NewWithServices(cfg, logger, m, pgdump.New(logger, cfg.VersionCacheTTL), telegram.New(logger))
}

// NewWithServices creates a new export service with custom services (for testing).
func NewWithServices(
	cfg models.Config,
	logger zerolog.Logger,
	m *metrics.Metrics,
	dumpSvc pgdump.Service,
	telegramSvc telegram.Service,
) *Impl {
	return &Impl{
		cfg:         cfg,
		dumpSvc:     dumpSvc,
		telegramSvc: telegramSvc,
		metrics:     m,
		logger:      logger,
	}
}

// Prepare resolves the server profile, checks that exports are enabled for the
// scope, probes the dump executable and builds the command.
func (s *Impl) Prepare(ctx context.Context, req models.ExportRequest) (*Plan, error) {
	if err := Validate(req); err != nil {
		s.metrics.ObserveRejected(string(req.Scope), string(req.Delivery), metrics.StatusInvalid)
		return nil, err
	}

	profile, ok := s.cfg.Profile(req.Server)
	if !ok {
		s.metrics.ObserveRejected(string(req.Scope), string(req.Delivery), metrics.StatusInvalid)
		return nil, fmt.Errorf("%w: %q", ErrUnknownServer, req.Server)
	}

	exe := profile.DumpPath(req.Scope)
	if exe == "" {
		s.metrics.ObserveRejected(string(req.Scope), string(req.Delivery), metrics.StatusDisabled)
		return nil, ErrExportDisabled
	}

	version, err := s.dumpSvc.Version(ctx, exe)
	if err != nil {
		cfgErr := &ConfigurationError{Path: exe, DumpAll: req.Scope.IsCluster(), Err: err}
		s.metrics.ObserveProbeFailure(cfgErr.Executable())
		s.metrics.ObserveRejected(string(req.Scope), string(req.Delivery), metrics.StatusConfigError)
		s.logger.Error().
			Err(err).
			Str("server", profile.Name).
			Str("path", exe).
			Msg("dump executable did not report a version")
		return nil, cfgErr
	}

	return &Plan{
		Request: req,
		Profile: *profile,
		Version: version,
		Command: pgdump.BuildCommand(req, *profile, version),
	}, nil
}

// Run streams the planned dump to w unchanged, whatever the scope and delivery.
func (s *Impl) Run(ctx context.Context, plan *Plan, w io.Writer) *models.ExportResult {
	req := plan.Request
	start := time.Now()

	s.logger.Info().
		Str("server", plan.Profile.Name).
		Str("scope", string(req.Scope)).
		Str("target", req.Target()).
		Str("delivery", string(req.Delivery)).
		Str("version", plan.Version.Original()).
		Msg("starting export")

	result, err := s.dumpSvc.Stream(ctx, plan.Command, w)
	if err != nil {
		result = &models.ExportResult{Error: err}
	}
	result.Duration = time.Since(start)

	status := metrics.StatusOK
	if result.Error != nil {
		status = metrics.StatusDumpFailed
		s.logger.Warn().
			Err(result.Error).
			Str("server", plan.Profile.Name).
			Str("target", req.Target()).
			Int64("bytes", result.Bytes).
			Msg("export ended with an error")
	} else {
		s.logger.Info().
			Str("server", plan.Profile.Name).
			Str("target", req.Target()).
			Int64("bytes", result.Bytes).
			Dur("duration", result.Duration).
			Msg("export completed")
	}
	s.metrics.ObserveExport(string(req.Scope), string(req.Delivery), status, result.Bytes, result.Duration)

	if s.cfg.Telegram != nil {
		s.notify(context.WithoutCancel(ctx), plan, start, result)
	}

	return result
}

func (s *Impl) notify(ctx context.Context, plan *Plan, start time.Time, result *models.ExportResult) {
	msg := models.ExportNotification{
		Server:    plan.Profile.Name,
		Scope:     plan.Request.Scope,
		Target:    plan.Request.Target(),
		Delivery:  plan.Request.Delivery,
		StartTime: start,
		Duration:  result.Duration,
		Bytes:     result.Bytes,
	}
	if result.Error != nil {
		msg.ErrorMessage = result.Error.Error()
	}

	sent, err := s.telegramSvc.SendNotification(ctx, *s.cfg.Telegram, msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if sent.Error != nil {
		s.logger.Error().Err(sent.Error).Msg("failed to send Telegram notification")
	}
}
