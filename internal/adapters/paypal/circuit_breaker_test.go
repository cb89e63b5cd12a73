package paypal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time           { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(config CircuitBreakerConfig) (*CircuitBreaker, *manualClock) {
	clock := &manualClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(config)
	cb.now = clock.now
	return cb, clock
}

func failing() error { return errors.New("upstream 503") }
func passing() error { return nil }

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 3, Cooldown: time.Minute})

	_ = cb.Call(failing)
	_ = cb.Call(failing)
	require.NoError(t, cb.Call(passing))
	assert.Equal(t, uint32(0), cb.Failures(), "a success resets the streak")

	for i := 0; i < 3; i++ {
		_ = cb.Call(failing)
	}
	require.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_IgnoresNonTrippingErrors(t *testing.T) {
	rejected := errors.New("refund rejected: 422")
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		MaxFailures: 2,
		Cooldown:    time.Minute,
		IsFailure:   func(err error) bool { return !errors.Is(err, rejected) },
	})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return rejected }), rejected)
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.Failures())
}

func TestCircuitBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	var states []CircuitState
	cb, clock := newTestBreaker(CircuitBreakerConfig{
		MaxFailures:   1,
		Cooldown:      30 * time.Second,
		OnStateChange: func(s CircuitState) { states = append(states, s) },
	})

	_ = cb.Call(failing)
	clock.advance(29 * time.Second)
	assert.ErrorIs(t, cb.Call(passing), ErrCircuitOpen)

	clock.advance(time.Second)
	require.NoError(t, cb.Call(passing))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []CircuitState{StateOpen, StateHalfOpen, StateClosed}, states)
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Cooldown: time.Second})

	_ = cb.Call(failing)
	clock.advance(2 * time.Second)
	_ = cb.Call(failing)

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Call(passing), ErrCircuitOpen, "cooldown restarts on reopen")
}

func TestCircuitBreaker_SingleProbe(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Cooldown: time.Second})
	_ = cb.Call(failing)
	clock.advance(2 * time.Second)

	var second error
	err := cb.Call(func() error {
		second = cb.Call(passing)
		return nil
	})

	require.NoError(t, err)
	assert.ErrorIs(t, second, ErrProbeInFlight)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
