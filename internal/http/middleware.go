package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/example/daygrid/internal/logging"
)

// RequestLogger tags every request with a sequential id and logs its start,
// final status, and duration. The tagged logger rides the request context so
// handlers and services join the same trail.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequireBasicAuth guards every route behind HTTP basic auth. The password is
// verified against an argon2id hash so the configuration never holds the
// plain text.
func RequireBasicAuth(username, passwordHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="daygrid"`)
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingCredentials)
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passwordOK := VerifyPassword(passwordHash, password) == nil
			if !userOK || !passwordOK {
				w.Header().Set("WWW-Authenticate", `Basic realm="daygrid"`)
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errInvalidCredentials)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
