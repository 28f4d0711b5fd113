package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 500 * time.Millisecond

// Logging logs every request with method, path, status and timing. Slow
// requests are logged at WARN level.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", duration.Milliseconds(),
		}

		switch {
		case ww.Status() >= http.StatusInternalServerError:
			slog.Error("request failed", attrs...)
		case duration > slowRequestThreshold:
			slog.Warn("slow request", attrs...)
		default:
			slog.Debug("request completed", attrs...)
		}
	})
}
