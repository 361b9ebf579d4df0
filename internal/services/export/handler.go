package export

import (
	"errors"
	"net/http"
	"time"

	"github.com/fgeck/pgdump-gateway/internal/lang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Handler serves dump downloads over HTTP.
type Handler struct {
	svc    Service
	logger zerolog.Logger
}

// NewHandler creates an HTTP handler backed by svc.
func NewHandler(svc Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ServeHTTP accepts the export parameters as query string or form values.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, err)
		return
	}

	req, err := ParseRequest(r.Form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.svc.Prepare(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Dumps of a whole cluster can outlast any server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug().Err(err).Msg("could not clear write deadline")
	}

	SetHeaders(w.Header(), req.Delivery, r.UserAgent(), isSecure(r))
	w.WriteHeader(http.StatusOK)

	// The status line is already sent, the result only feeds logs and metrics.
	h.svc.Run(r.Context(), plan, w)
}

func (h *Handler) requestLogger(r *http.Request) *zerolog.Logger {
	if l := hlog.FromRequest(r); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.logger
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.requestLogger(r)
	p := lang.Printer(r.Header.Get("Accept-Language"))

	var cfgErr *ConfigurationError
	var invalid *invalidRequestError
	switch {
	case errors.As(err, &cfgErr):
		msg := lang.BadPgDumpPath
		if cfgErr.DumpAll {
			msg = lang.BadPgDumpAllPath
		}
		writeText(w, http.StatusInternalServerError, p.Sprintf(msg, cfgErr.Path))
	case errors.Is(err, ErrExportDisabled):
		// A disabled scope is a no-op: empty 200.
		logger.Info().Msg("export requested for a disabled scope")
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, ErrUnknownServer):
		writeText(w, http.StatusNotFound, p.Sprintf(lang.UnknownServer, r.FormValue("server")))
	case errors.As(err, &invalid):
		logger.Debug().Err(err).Msg("rejected export request")
		writeText(w, http.StatusBadRequest, p.Sprintf(lang.InvalidRequest, invalid.reason))
	default:
		logger.Warn().Err(err).Msg("could not read export request")
		writeText(w, http.StatusBadRequest, p.Sprintf(lang.InvalidRequest, err.Error()))
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg + "\n"))
}
