// Package pgdump builds and runs pg_dump / pg_dumpall invocations.
package pgdump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// relayBufferSize bounds the memory used per running export.
const relayBufferSize = 32 * 1024

// Service defines the interface for dump operations.
type Service interface {
	Version(ctx context.Context, exe string) (*semver.Version, error)
	Stream(ctx context.Context, cmd models.DumpCommand, w io.Writer) (*models.ExportResult, error)
}

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Stream(ctx context.Context, env []string, stdout io.Writer, name string, args ...string) (int64, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// Output runs a command and returns its standard output.
func (e *DefaultExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // name comes from server configuration
	cmd.Env = isolatedEnviron(os.Environ())
	return cmd.Output()
}

// Stream runs a command and relays its standard output to stdout.
// Standard error is discarded. env is added to the child's environment only.
func (e *DefaultExecutor) Stream(ctx context.Context, env []string, stdout io.Writer, name string, args ...string) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // argv is built by BuildCommand
	cmd.Env = append(isolatedEnviron(os.Environ()), env...)

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", filepath.Base(name), err)
	}

	written, relayErr := Relay(stdout, pipe)
	if relayErr != nil {
		// Nobody is reading anymore, stop the dump.
		cancel()
	}

	waitErr := cmd.Wait()
	if relayErr != nil {
		return written, relayErr
	}
	if waitErr != nil {
		return written, fmt.Errorf("%s failed: %w", filepath.Base(name), waitErr)
	}

	return written, nil
}

// isolatedEnviron drops inherited libpq variables so the child only sees
// the connection settings of the export it runs.
func isolatedEnviron(environ []string) []string {
	env := make([]string, 0, len(environ))
	for _, kv := range environ {
		if strings.HasPrefix(kv, "PG") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

// ErrWrite marks a relay that stopped because the destination failed.
var ErrWrite = errors.New("writing dump output")

// Relay copies src to dst in bounded chunks until src is exhausted or a write
// fails. dst is flushed after every chunk when it is an http.Flusher.
func Relay(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, relayBufferSize)
	flusher, _ := dst.(http.Flusher)

	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err == nil && w < n {
				err = io.ErrShortWrite
			}
			if err != nil {
				return written, fmt.Errorf("%w: %w", ErrWrite, err)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("reading dump output: %w", readErr)
		}
	}
}

// Impl implements the pgdump Service interface.
type Impl struct {
	executor CommandExecutor
	logger   zerolog.Logger
	versions *cache.Cache
	ttl      time.Duration
}

// New creates a new dump service. Successful version probes are cached for ttl;
// a zero ttl probes on every call.
func New(logger zerolog.Logger, ttl time.Duration) *Impl {
	return NewWithExecutor(logger, &DefaultExecutor{}, ttl)
}

// NewWithExecutor creates a new dump service with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor CommandExecutor, ttl time.Duration) *Impl {
	s := &Impl{
		executor: executor,
		logger:   logger,
		ttl:      ttl,
	}
	if ttl > 0 {
		s.versions = cache.New(ttl, 2*ttl)
	}
	return s
}

// Version runs exe --version and returns its major.minor version.
func (s *Impl) Version(ctx context.Context, exe string) (*semver.Version, error) {
	if s.versions != nil {
		if v, ok := s.versions.Get(exe); ok {
			return v.(*semver.Version), nil
		}
	}

	output, execErr := s.executor.Output(ctx, exe, "--version")

	v, err := ParseVersion(string(output))
	if err != nil {
		if execErr != nil {
			err = fmt.Errorf("%w: %w", err, execErr)
		}
		s.logger.Debug().Err(err).Str("path", exe).Msg("version probe failed")
		return nil, err
	}

	if s.versions != nil {
		s.versions.Set(exe, v, cache.DefaultExpiration)
	}

	s.logger.Debug().
		Str("path", exe).
		Str("version", v.Original()).
		Msg("version probe succeeded")

	return v, nil
}

// Stream runs the dump and relays its output to w. The child's exit status is
// stored in the result; it never alters what was already written.
func (s *Impl) Stream(ctx context.Context, cmd models.DumpCommand, w io.Writer) (*models.ExportResult, error) {
	if cmd.Path == "" {
		return nil, errors.New("no dump executable configured")
	}

	s.logger.Debug().
		Str("path", cmd.Path).
		Strs("args", cmd.Args).
		Strs("env", RedactEnv(cmd.Env)).
		Msg("starting dump")

	start := time.Now()
	result := &models.ExportResult{}

	written, err := s.executor.Stream(ctx, cmd.Env, w, cmd.Path, cmd.Args...)
	result.Bytes = written
	result.Duration = time.Since(start)
	result.Error = err

	s.logger.Debug().
		Int64("bytes", result.Bytes).
		Dur("duration", result.Duration).
		Err(result.Error).
		Msg("dump finished")

	return result, nil
}
