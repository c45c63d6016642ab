// Package ratelimit implements per-client request limiting for the
// gateway's public endpoints. Counters live in Redis so every gateway
// instance shares the same fixed window per client.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit decisions.
var (
	rateLimitBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "places_rate_limit_blocked_total",
		Help: "Total number of requests blocked by the per-client rate limit",
	})

	rateLimitSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "places_rate_limit_skipped_total",
		Help: "Total number of rate limit checks skipped because Redis was unavailable",
	})
)

// keyPrefix namespaces limiter counters away from the response cache.
const keyPrefix = "ratelimit:"

// Config holds the fixed-window limiter policy.
type Config struct {
	// Window is the fixed window length.
	Window time.Duration

	// MaxRequests is the number of requests allowed per client per window.
	MaxRequests int
}

// DefaultConfig returns the default limiter policy.
func DefaultConfig() Config {
	return Config{
		Window:      15 * time.Minute,
		MaxRequests: 100,
	}
}

// Decision is the outcome of a limiter check for one request.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the per-window maximum, echoed for response headers.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// RetryAfter is the time until the window resets. Only meaningful
	// when Allowed is false.
	RetryAfter time.Duration
}

// Limiter enforces a fixed-window request limit per client key.
//
// The limiter fails open: when Redis is unreachable or an operation
// errors, the request is allowed. Losing rate limiting is preferable
// to refusing traffic because the counter store is down.
type Limiter struct {
	redis  *redis.Client
	cfg    Config
	logger zerolog.Logger
}

// NewLimiter creates a limiter backed by the given Redis client.
func NewLimiter(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Limiter {
	if redisClient == nil {
		panic("ratelimit: redis client is required")
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultConfig().MaxRequests
	}
	return &Limiter{
		redis:  redisClient,
		cfg:    cfg,
		logger: logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow records one request for clientKey and reports whether it may
// proceed. The first request in a window creates the counter and arms
// its expiry; the window resets when the key expires.
func (l *Limiter) Allow(ctx context.Context, clientKey string) Decision {
	key := keyPrefix + clientKey

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
		rateLimitSkippedTotal.Inc()
		return Decision{Allowed: true, Limit: l.cfg.MaxRequests, Remaining: l.cfg.MaxRequests}
	}

	count := incr.Val()
	windowTTL := ttl.Val()

	// TTL is negative for a key without expiry, which happens on the
	// first increment of a window (and after a crashed EXPIRE).
	if windowTTL < 0 {
		if err := l.redis.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to arm rate limit window expiry")
		}
		windowTTL = l.cfg.Window
	}

	remaining := l.cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(l.cfg.MaxRequests) {
		rateLimitBlockedTotal.Inc()
		l.logger.Warn().
			Str("client", clientKey).
			Int64("count", count).
			Int("limit", l.cfg.MaxRequests).
			Dur("retry_after", windowTTL).
			Msg("Rate limit exceeded")
		return Decision{
			Allowed:    false,
			Limit:      l.cfg.MaxRequests,
			Remaining:  0,
			RetryAfter: windowTTL,
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     l.cfg.MaxRequests,
		Remaining: remaining,
	}
}

// Reset clears the window for clientKey. Used by tests and admin tooling.
func (l *Limiter) Reset(ctx context.Context, clientKey string) error {
	return l.redis.Del(ctx, keyPrefix+clientKey).Err()
}
