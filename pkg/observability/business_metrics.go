package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Admin action metrics
	adminActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_admin_actions_total",
		Help: "Total admin actions performed on payments",
	}, []string{
		"action",  // hold, review, rejected, refund, unknown
		"outcome", // result message, e.g. payment_on_hold, paypal_refund_failed
	})

	// Provider refund metrics
	providerRefundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_admin_provider_refunds_total",
		Help: "Total refund calls made to the payment provider",
	}, []string{
		"provider",
		"status", // success, http_error, auth_error, transport_error, circuit_open
	})

	providerRefundDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "payments_admin_provider_refund_duration_seconds",
		Help: "Duration of provider refund calls",
		// Buckets: 100ms to 20s (provider timeout)
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{
		"provider",
	})

	providerCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "payments_admin_provider_circuit_state",
		Help: "Provider circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{
		"provider",
	})

	// Best-effort side effects that failed without failing the request
	secondaryFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_admin_secondary_failures_total",
		Help: "Best-effort writes (audit records, linked order updates) that failed",
	}, []string{
		"effect", // audit_append, order_status, refund_persist
	})

	// Authentication decisions
	authDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_admin_auth_decisions_total",
		Help: "Authentication decisions by strategy and result",
	}, []string{
		"strategy", // token, session, admin_user, allow_list, chain
		"result",   // granted, denied, missing, forbidden
	})
)

// RecordAdminAction records the outcome of an admin action
func RecordAdminAction(action, outcome string) {
	adminActionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordProviderRefund records a provider refund call
func RecordProviderRefund(provider, status string, duration float64) {
	providerRefundsTotal.WithLabelValues(provider, status).Inc()
	providerRefundDuration.WithLabelValues(provider).Observe(duration)
}

// SetProviderCircuitState records the current circuit breaker state
func SetProviderCircuitState(provider string, state int) {
	providerCircuitState.WithLabelValues(provider).Set(float64(state))
}

// RecordSecondaryFailure records a failed best-effort write
func RecordSecondaryFailure(effect string) {
	secondaryFailuresTotal.WithLabelValues(effect).Inc()
}

// RecordAuthDecision records an authentication decision
func RecordAuthDecision(strategy, result string) {
	authDecisionsTotal.WithLabelValues(strategy, result).Inc()
}
