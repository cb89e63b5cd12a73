package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestHealthChecker(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthChecker(stubPinger{}).HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
	})

	t.Run("database down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthChecker(stubPinger{err: errors.New("connection refused")}).HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("non-critical failure degrades", func(t *testing.T) {
		checker := NewHealthChecker(stubPinger{})
		checker.AddCheck("paypal", false, func(context.Context) error { return errors.New("credentials missing") })

		status := checker.Check(context.Background())
		assert.Equal(t, "degraded", status.Status)
		assert.Equal(t, "unhealthy: credentials missing", status.Checks["paypal"])

		rec := httptest.NewRecorder()
		NewMetricsMux(checker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("draining fails readiness", func(t *testing.T) {
		checker := NewHealthChecker(stubPinger{})
		mux := NewMetricsMux(checker)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		checker.SetDraining()
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHTTPMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/payments-admin/api/payments/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/payments-admin/api/payments/{id}", "404"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments-admin/api/payments/77", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/payments-admin/api/payments/{id}", "404"))
	assert.Equal(t, before+1, after)
}

func TestBusinessMetrics(t *testing.T) {
	before := testutil.ToFloat64(secondaryFailuresTotal.WithLabelValues("audit_append"))
	RecordSecondaryFailure("audit_append")
	assert.Equal(t, before+1, testutil.ToFloat64(secondaryFailuresTotal.WithLabelValues("audit_append")))

	before = testutil.ToFloat64(adminActionsTotal.WithLabelValues("hold", "payment_on_hold"))
	RecordAdminAction("hold", "payment_on_hold")
	assert.Equal(t, before+1, testutil.ToFloat64(adminActionsTotal.WithLabelValues("hold", "payment_on_hold")))
}
