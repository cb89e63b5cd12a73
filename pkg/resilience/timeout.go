package resilience

import (
	"context"
	"time"
)

// TimeoutConfig holds the nested request budgets. Outermost first:
// HTTPHandler > Action > ExternalAPI (PayPal token plus refund). Persist and
// AuditWrite are detached from the request and DBConnect bounds one startup
// ping.
type TimeoutConfig struct {
	HTTPHandler time.Duration
	Action      time.Duration
	ExternalAPI time.Duration
	Persist     time.Duration
	AuditWrite  time.Duration
	DBConnect   time.Duration
}

func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 30 * time.Second,
		Action:      25 * time.Second,
		ExternalAPI: 20 * time.Second,
		Persist:     10 * time.Second,
		AuditWrite:  5 * time.Second,
		DBConnect:   10 * time.Second,
	}
}

// TestTimeoutConfig keeps the same ordering with second-scale budgets
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		Action:      4 * time.Second,
		ExternalAPI: 2 * time.Second,
		Persist:     2 * time.Second,
		AuditWrite:  time.Second,
		DBConnect:   time.Second,
	}
}

func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

func (tc *TimeoutConfig) ActionContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Action)
}

func (tc *TimeoutConfig) ExternalAPIContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ExternalAPI)
}

// PersistContext bounds a status write that must finish once started, for
// instance after PayPal has already moved the money. It ignores parent
// cancellation but keeps its values.
func (tc *TimeoutConfig) PersistContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), tc.Persist)
}

// AuditContext outlives parent cancellation so a client disconnect does not
// drop the audit record.
func (tc *TimeoutConfig) AuditContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), tc.AuditWrite)
}

func (tc *TimeoutConfig) ConnectContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.DBConnect)
}
