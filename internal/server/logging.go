package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLoggingMiddleware emits one slog line per request. Status and byte
// counts come from chi's wrapped writer, which also keeps Flush and Hijack
// working for the websocket upgrade path.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(lw, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", lw.BytesWritten(),
		}
		if r.URL.RawQuery != "" {
			fields = append(fields, "query", r.URL.RawQuery)
		}
		s.logger.Info("http request", fields...)
	})
}
