package export

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks request parameters that cannot describe an export.
	ErrInvalidRequest = errors.New("invalid export request")
	// ErrUnknownServer is returned when the requested server profile does not exist.
	ErrUnknownServer = errors.New("unknown server")
	// ErrExportDisabled is returned when no executable is configured for the scope.
	ErrExportDisabled = errors.New("export disabled")
)

// ConfigurationError reports a dump executable that did not answer --version
// with a recognisable version number.
type ConfigurationError struct {
	Path    string
	DumpAll bool
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("bad %s path %q: %v", e.Executable(), e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Executable returns the name of the misconfigured tool.
func (e *ConfigurationError) Executable() string {
	if e.DumpAll {
		return "pg_dumpall"
	}
	return "pg_dump"
}

// invalidRequestError carries the reason a request was rejected and matches ErrInvalidRequest.
type invalidRequestError struct {
	reason string
}

func (e *invalidRequestError) Error() string {
	return ErrInvalidRequest.Error() + ": " + e.reason
}

func (e *invalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalidf(format string, args ...any) error {
	return &invalidRequestError{reason: fmt.Sprintf(format, args...)}
}
