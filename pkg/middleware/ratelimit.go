package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// clientLimiter tracks a token bucket and when its client was last seen
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// KeyFunc derives the rate-limit key for a request
type KeyFunc func(r *http.Request) string

// RateLimiterConfig configures per-client request limiting
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	MaxClients        int           // Cached limiters before the least recently seen is evicted
	CleanupInterval   time.Duration // Idle limiters older than this are dropped
	KeyFunc           KeyFunc
}

// DefaultRateLimiterConfig returns limits keyed by remote host
func DefaultRateLimiterConfig(requestsPerSecond float64, burst int) RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: requestsPerSecond,
		Burst:             burst,
		MaxClients:        10000,
		CleanupInterval:   5 * time.Minute,
		KeyFunc:           RemoteHost,
	}
}

// RateLimiter limits requests per client with periodic cleanup of idle clients
type RateLimiter struct {
	cfg      RateLimiterConfig
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	logger   *zap.Logger
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter and starts its cleanup loop
func NewRateLimiter(cfg RateLimiterConfig, logger *zap.Logger) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = RemoteHost
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rl := &RateLimiter{
		cfg:      cfg,
		limiters: make(map[string]*clientLimiter),
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// RemoteHost keys requests by the host part of RemoteAddr
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			if removed := rl.cleanup(); removed > 100 {
				rl.logger.Info("Rate limiter cleanup", zap.Int("removed", removed))
			}
		}
	}
}

// cleanup drops limiters idle for longer than the cleanup interval
func (rl *RateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.CleanupInterval)
	removed := 0
	for key, l := range rl.limiters {
		if l.lastAccess.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Shutdown stops the cleanup loop. Safe to call more than once.
func (rl *RateLimiter) Shutdown() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if l, ok := rl.limiters[key]; ok {
		l.lastAccess = now
		return l.limiter
	}

	if len(rl.limiters) >= rl.cfg.MaxClients {
		var (
			oldestKey  string
			oldestTime time.Time
		)
		for k, l := range rl.limiters {
			if oldestKey == "" || l.lastAccess.Before(oldestTime) {
				oldestKey, oldestTime = k, l.lastAccess
			}
		}
		delete(rl.limiters, oldestKey)
	}

	l := &clientLimiter{
		limiter:    rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		lastAccess: now,
	}
	rl.limiters[key] = l
	return l.limiter
}

// Size returns the number of tracked clients
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware rejects requests over the limit with 429 and a JSON error body
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(rl.cfg.KeyFunc(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
