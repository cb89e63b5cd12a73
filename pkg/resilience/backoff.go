package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy gives the wait before retry number attempt (0-indexed)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles (by Multiplier) from BaseDelay up to MaxDelay,
// spread by ±Jitter.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64 // 0.1 means ±10%
}

// DatabaseConnectBackoff is used while waiting for Postgres at startup:
// ~500ms, 1s, 2s, 4s, then 5s.
func DatabaseConnectBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// NextDelay returns BaseDelay * Multiplier^attempt, capped and jittered
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return eb.BaseDelay
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	spread := delay * eb.Jitter
	next := time.Duration(delay + (rand.Float64()*2-1)*spread)
	if next < 0 {
		return eb.BaseDelay
	}
	return next
}

// ConstantBackoff waits the same Delay between every attempt
type ConstantBackoff time.Duration

func (c ConstantBackoff) NextDelay(int) time.Duration {
	return time.Duration(c)
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn up to attempts times, sleeping between failures according
// to strategy. It stops early on a Permanent error or when ctx is done, and
// returns the last error.
func Retry(ctx context.Context, attempts int, strategy BackoffStrategy, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(strategy.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
