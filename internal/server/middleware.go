package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"
)

const realm = "pgdump-gateway"

// accessLog attaches a request scoped logger with a request id and logs one
// line per completed request.
func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		hlog.NewHandler(logger),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		hlog.RemoteAddrHandler("remote"),
		hlog.MethodHandler("method"),
		hlog.URLHandler("url"),
		hlog.UserAgentHandler("user_agent"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	}

	return func(next http.Handler) http.Handler {
		for i := len(chain) - 1; i >= 0; i-- {
			next = chain[i](next)
		}
		return next
	}
}

// basicAuth requires HTTP basic credentials matching auth.
func basicAuth(auth models.AuthConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	hash := []byte(auth.PasswordHash)
	username := []byte(auth.Username)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok {
				userOK := subtle.ConstantTimeCompare([]byte(user), username) == 1
				passOK := bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
				if userOK && passOK {
					next.ServeHTTP(w, r)
					return
				}
				hlog.FromRequest(r).Warn().Str("user", user).Msg("authentication failed")
			} else {
				logger.Debug().Str("path", r.URL.Path).Msg("request without credentials")
			}

			w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}
}
