package paypal

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is the breaker position. The numeric value is exported as
// the provider circuit gauge.
type CircuitState int

const (
	StateClosed   CircuitState = iota // refunds flow normally
	StateOpen                         // refunds fail fast without calling PayPal
	StateHalfOpen                     // one probe refund is let through
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var (
	// ErrCircuitOpen is returned without calling PayPal while the breaker is open
	ErrCircuitOpen = errors.New("paypal circuit breaker is open")
	// ErrProbeInFlight is returned while a half-open probe is outstanding
	ErrProbeInFlight = errors.New("paypal circuit breaker probe in flight")
)

// CircuitBreakerConfig configures the breaker in front of the refund API
type CircuitBreakerConfig struct {
	MaxFailures uint32        // consecutive failures that open the circuit
	Cooldown    time.Duration // time spent open before a probe is allowed

	// IsFailure decides which errors count against PayPal; nil counts all
	IsFailure func(err error) bool
	// OnStateChange runs under the breaker lock
	OnStateChange func(state CircuitState)
}

// DefaultCircuitBreakerConfig opens after five straight failures and probes
// again after 30s
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
	}
}

// CircuitBreaker stops refund calls to PayPal while it is failing
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures uint32
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{config: config, now: time.Now}
}

// Call runs fn when the breaker allows it and records the outcome
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Cooldown {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
	case StateHalfOpen:
		if cb.probing {
			return ErrProbeInFlight
		}
	}

	if cb.state == StateHalfOpen {
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil && (cb.config.IsFailure == nil || cb.config.IsFailure(err))
	switch {
	case cb.state == StateHalfOpen && failed:
		cb.transition(StateOpen)
	case cb.state == StateHalfOpen:
		cb.transition(StateClosed)
	case failed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.transition(StateOpen)
		}
	default:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	if cb.state == to {
		return
	}
	cb.state = to
	cb.failures = 0
	cb.probing = false
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(to)
	}
}

// State returns the current position
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count while closed
func (cb *CircuitBreaker) Failures() uint32 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
