package middleware

import (
	"log/slog"
	"net/http"

	"github.com/staybook/reviews/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with request_id,
// user_id, trace_id, and span_id and stores it in context via
// logger.NewContext. Downstream handlers retrieve it with logger.FromContext.
//
// Mount this after RequestLogging (which sets request_id) and after Auth
// (which sets the caller identity).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
