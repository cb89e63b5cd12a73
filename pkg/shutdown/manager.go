package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payments_admin_shutdown_duration_seconds",
		Help:    "Total time taken to shut down",
		Buckets: []float64{0.5, 1, 5, 10, 20, 30},
	})

	componentShutdownDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payments_admin_component_shutdown_duration_seconds",
		Help:    "Time taken to stop each component",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"component"})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_admin_shutdown_errors_total",
		Help: "Components that failed to stop cleanly",
	}, []string{"component"})
)

// StopFunc stops one component within the deadline carried by ctx
type StopFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager stops registered components in reverse registration order.
// Register the database first and the HTTP server last so requests drain
// before connections close.
type Manager struct {
	logger     *zap.Logger
	timeout    time.Duration
	mu         sync.Mutex
	components []component
	once       sync.Once
}

// NewManager creates a shutdown manager with an overall deadline
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a component
func (m *Manager) Register(name string, stop StopFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, stop: stop})
	m.logger.Debug("Registered shutdown component",
		zap.String("component", name),
		zap.Int("order", len(m.components)))
}

// RegisterHTTPServer registers anything with an http.Server style Shutdown
func (m *Manager) RegisterHTTPServer(name string, server interface{ Shutdown(context.Context) error }) {
	m.Register(name, server.Shutdown)
}

// RegisterNoErr registers a stop function that cannot fail
func (m *Manager) RegisterNoErr(name string, fn func()) {
	m.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// WaitForSignal blocks until SIGINT or SIGTERM, or until ctx is done, and
// then stops every component.
func (m *Manager) WaitForSignal(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	m.logger.Info("Shutdown requested", zap.Duration("timeout", m.timeout))
	return m.Shutdown()
}

// Shutdown stops every component once, newest first. Each component gets
// whatever remains of the overall deadline; errors are joined.
func (m *Manager) Shutdown() error {
	var result error
	m.once.Do(func() {
		result = m.shutdown()
	})
	return result
}

func (m *Manager) shutdown() error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		began := time.Now()

		err := c.stop(ctx)
		componentShutdownDuration.WithLabelValues(c.name).Observe(time.Since(began).Seconds())
		if err != nil {
			shutdownErrors.WithLabelValues(c.name).Inc()
			m.logger.Error("Component shutdown failed",
				zap.String("component", c.name),
				zap.Duration("elapsed", time.Since(began)),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		m.logger.Info("Component stopped",
			zap.String("component", c.name),
			zap.Duration("elapsed", time.Since(began)))
	}

	elapsed := time.Since(start)
	shutdownDuration.Observe(elapsed.Seconds())
	if len(errs) > 0 {
		m.logger.Error("Shutdown completed with errors",
			zap.Int("error_count", len(errs)),
			zap.Duration("elapsed", elapsed))
		return errors.Join(errs...)
	}
	m.logger.Info("Shutdown completed", zap.Duration("elapsed", elapsed))
	return nil
}
