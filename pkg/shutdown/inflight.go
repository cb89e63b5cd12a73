package shutdown

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// InFlightTracker counts requests still being served so shutdown can wait
// for payment actions to finish their provider call and persist.
type InFlightTracker struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	draining bool
	logger   *zap.Logger
	name     string
}

// NewInFlightTracker creates a tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		logger: logger,
		name:   name,
	}
}

// Add registers one unit of work. It returns false once draining started.
func (t *InFlightTracker) Add() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.draining {
		return false
	}
	t.wg.Add(1)
	return true
}

// Done marks one unit of work complete
func (t *InFlightTracker) Done() {
	t.wg.Done()
}

// IsDraining reports whether Shutdown has been called
func (t *InFlightTracker) IsDraining() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draining
}

// Middleware rejects new requests with 503 while draining and tracks the rest
func (t *InFlightTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Add() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Connection", "close")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"shutting_down"}`))
			return
		}
		defer t.Done()
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops admitting work and waits for the in-flight count to reach
// zero or for ctx to end.
func (t *InFlightTracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.draining = true
	t.mu.Unlock()

	t.logger.Info("Waiting for in-flight requests", zap.String("tracker", t.name))

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("In-flight requests drained", zap.String("tracker", t.name))
		return nil
	case <-ctx.Done():
		t.logger.Warn("Drain deadline exceeded", zap.String("tracker", t.name))
		return ctx.Err()
	}
}
