package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsShutdownTimeout = 5 * time.Second

// NewMetricsMux serves /metrics plus /health and /ready. Without a checker
// /ready always answers ok.
func NewMetricsMux(checker *HealthChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if checker == nil {
		mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ready"))
		})
		return mux
	}
	mux.HandleFunc("/health", checker.HealthHandler())
	mux.HandleFunc("/ready", checker.ReadyHandler())
	return mux
}

// StartMetricsServer listens on port in the background
func StartMetricsServer(port string, checker *HealthChecker, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewMetricsMux(checker),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

func ShutdownMetricsServer(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
