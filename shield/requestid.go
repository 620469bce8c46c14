package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/pagetoc/idgen"
	"github.com/hazyhaar/pagetoc/kit"
)

// RequestID stamps each request with an id, stored under kit.RequestIDKey
// and echoed in X-Request-ID, and attaches a per-request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = idgen.New()
		}
		ctx := kit.WithRequestID(r.Context(), id)
		ctx = kit.WithTransport(ctx, "http")
		w.Header().Set("X-Request-ID", id)

		logger := slog.Default().With(
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Debug("shield: request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
