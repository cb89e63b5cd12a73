package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff_NextDelay(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{20, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_JitterStaysInBounds(t *testing.T) {
	backoff := DatabaseConnectBackoff()

	for i := 0; i < 200; i++ {
		delay := backoff.NextDelay(1)
		assert.GreaterOrEqual(t, delay, 900*time.Millisecond)
		assert.LessOrEqual(t, delay, 1100*time.Millisecond)
	}
	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, backoff.NextDelay(10), 5500*time.Millisecond)
	}
}

func TestConstantBackoff(t *testing.T) {
	backoff := ConstantBackoff(time.Second)
	assert.Equal(t, time.Second, backoff.NextDelay(0))
	assert.Equal(t, time.Second, backoff.NextDelay(9))
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, ConstantBackoff(time.Millisecond), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, ConstantBackoff(time.Millisecond), func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})

	require.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	authFailed := errors.New("password authentication failed")
	calls := 0
	err := Retry(context.Background(), 5, ConstantBackoff(time.Millisecond), func(ctx context.Context) error {
		calls++
		return Permanent(authFailed)
	})

	assert.Same(t, authFailed, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 10, ConstantBackoff(time.Second), func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
