package observability

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kevin07696/payments-admin/pkg/encoding"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool and the postgres DBExecutor
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckFunc reports a dependency problem as a non-nil error
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name     string
	critical bool
	fn       CheckFunc
}

// HealthStatus is the /health response body. Status is healthy, degraded
// (a non-critical check failed) or unhealthy.
type HealthStatus struct {
	Status    string            `json:"status"`
	Draining  bool              `json:"draining,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthChecker runs the registered dependency checks
type HealthChecker struct {
	mu       sync.RWMutex
	checks   []namedCheck
	draining atomic.Bool
}

// NewHealthChecker registers db as the critical "database" check. A nil db
// registers nothing.
func NewHealthChecker(db Pinger) *HealthChecker {
	h := &HealthChecker{}
	if db != nil {
		h.AddCheck("database", true, db.Ping)
	}
	return h
}

// AddCheck registers a check. A failing critical check makes the service
// unhealthy and not ready; a failing non-critical one only degrades it.
func (h *HealthChecker) AddCheck(name string, critical bool, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, namedCheck{name: name, critical: critical, fn: fn})
}

// SetDraining fails readiness while in-flight requests finish
func (h *HealthChecker) SetDraining() {
	h.draining.Store(true)
}

// Check runs every registered check
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := append([]namedCheck(nil), h.checks...)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Draining:  h.draining.Load(),
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string, len(checks)),
	}

	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.fn(checkCtx)
		cancel()

		if err == nil {
			status.Checks[c.name] = "healthy"
			continue
		}
		status.Checks[c.name] = "unhealthy: " + err.Error()
		switch {
		case c.critical:
			status.Status = "unhealthy"
		case status.Status == "healthy":
			status.Status = "degraded"
		}
	}
	return status
}

// HealthHandler serves the full check report; 503 only when unhealthy
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())
		code := http.StatusOK
		if status.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		_ = encoding.WriteJSON(w, code, status)
	}
}

// ReadyHandler reports ready unless draining or a critical check fails
func (h *HealthChecker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.draining.Load() {
			http.Error(w, "draining", http.StatusServiceUnavailable)
			return
		}
		if h.Check(r.Context()).Status == "unhealthy" {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
