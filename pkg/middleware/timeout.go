package middleware

import (
	"net/http"

	"github.com/kevin07696/payments-admin/pkg/resilience"
	"go.uber.org/zap"
)

// HandlerTimeout bounds each request with the handler budget from config.
// A request whose context already carries a deadline keeps it.
func HandlerTimeout(config *resilience.TimeoutConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := config.HandlerContext(r.Context())
			defer cancel()

			logger.Debug("Applied handler timeout",
				zap.String("path", r.URL.Path),
				zap.Duration("timeout", config.HTTPHandler))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
