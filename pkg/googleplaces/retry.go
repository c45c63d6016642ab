package googleplaces

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/abr13/demo-crud-review/pkg/places"
)

// Prometheus metrics for retry operations.
var (
	providerRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "places_provider_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	providerRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "places_provider_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Common errors returned by the retry layer.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during backoff.
	ErrContextCancelled = errors.New("context cancelled")
)

// errorClass categorizes provider failures for retry decisions and
// observability.
type errorClass string

const (
	// errorClassClient represents 4xx transport errors. Never retried.
	errorClassClient errorClass = "client"

	// errorClassServer represents 5xx transport errors.
	errorClassServer errorClass = "server"

	// errorClassRateLimit represents provider quota exhaustion.
	errorClassRateLimit errorClass = "rate_limit"

	// errorClassNetwork represents network/timeout errors.
	errorClassNetwork errorClass = "network"

	// errorClassProvider represents non-retriable provider status errors
	// (e.g. REQUEST_DENIED, INVALID_REQUEST).
	errorClassProvider errorClass = "provider"
)

// RetryConfig holds the retry policy for provider calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// InitialBackoff is the backoff before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// classify determines the error class of a failed attempt.
func classify(err error) errorClass {
	var pe *places.ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.Status != "":
			return classifyProviderStatus(pe.Status)
		case pe.StatusCode != 0:
			return classifyStatusCode(pe.StatusCode)
		}
	}
	if places.IsTimeout(err) {
		return errorClassNetwork
	}
	return errorClassNetwork
}

func classifyStatusCode(statusCode int) errorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return errorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return errorClassClient
	case statusCode >= 500:
		return errorClassServer
	default:
		return errorClassProvider
	}
}

func classifyProviderStatus(status string) errorClass {
	switch status {
	case statusOverLimit:
		return errorClassRateLimit
	case statusUnknown:
		// Documented by Google as transient.
		return errorClassServer
	default:
		return errorClassProvider
	}
}

// shouldRetry reports whether an error class is worth another attempt.
func shouldRetry(class errorClass) bool {
	switch class {
	case errorClassServer, errorClassRateLimit, errorClassNetwork:
		return true
	default:
		// Client and provider-status errors won't improve on retry.
		return false
	}
}

// retryWithBackoff executes fn with exponential backoff and ±20% jitter.
// It respects context cancellation and never retries errors classified
// as client/provider failures.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	var lastErr error
	var lastClass errorClass
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Provider request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = classify(err)

		if !shouldRetry(lastClass) {
			return lastErr
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		providerRetriesTotal.WithLabelValues(string(lastClass)).Inc()

		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		logger.Debug().
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying provider request after backoff")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	providerRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	logger.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Provider retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}
