package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	responsesRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_client_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	responsesRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "responses_client_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	responsesRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_client_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt. 0 disables retries.
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
// Retries are off: a failed fetch is reported to the caller once.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        0,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// newBackOff builds the backoff policy for cfg bound to ctx.
func (cfg RetryConfig) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.MaxInterval = cfg.MaxBackoff
	b.Multiplier = cfg.BackoffMultiplier
	// attempts are bounded by MaxRetries, not wall time
	b.MaxElapsedTime = 0

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// retryWithBackoff executes fn with exponential backoff.
// Errors whose class is not retriable are returned after the first attempt.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	attempts := 0

	operation := func() error {
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		if !shouldRetry(classOf(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		class := string(classOf(err))
		responsesRetriesTotal.WithLabelValues(class).Inc()
		responsesRetryBackoffSeconds.WithLabelValues(class).Observe(wait.Seconds())

		logger.Debug().
			Err(err).
			Str("error_class", class).
			Int("attempt", attempts).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")
	}

	err := backoff.RetryNotify(operation, cfg.newBackOff(ctx), notify)
	if err == nil {
		if attempts > 1 {
			logger.Info().
				Int("attempt", attempts).
				Msg("Request succeeded after retry")
		}
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Warn().
			Int("attempt", attempts).
			Msg("Context cancelled during retry")
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctxErr)
	}

	// RetryNotify unwraps permanent errors, so classify again.
	if !shouldRetry(classOf(err)) || cfg.MaxRetries <= 0 {
		return err
	}

	class := string(classOf(err))
	responsesRetryExhaustedTotal.WithLabelValues(class).Inc()
	logger.Warn().
		Str("error_class", class).
		Int("attempts", attempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, err)
}
