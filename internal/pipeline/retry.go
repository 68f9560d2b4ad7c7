package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"go-segment-report/internal/model"
)

// RetryConfig defines retry behavior for remote source fetches.
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay" mapstructure:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	Jitter            bool          `json:"jitter" mapstructure:"jitter"`
}

// DefaultFetchRetry is used for sources given as http(s) URLs.
var DefaultFetchRetry = RetryConfig{
	MaxAttempts:       3,
	InitialDelay:      1 * time.Second,
	MaxDelay:          30 * time.Second,
	BackoffMultiplier: 2.0,
	Jitter:            true,
}

// errRetryable marks a failure worth another attempt.
var errRetryable = errors.New("temporary failure")

// withRetry runs fn until it succeeds, fails permanently or attempts run out.
// Only errors wrapping errRetryable are retried.
func withRetry(ctx context.Context, cfg RetryConfig, op string, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errors.Is(err, errRetryable) || attempt == attempts {
			break
		}
		delay := backoffDelay(cfg, attempt)
		slog.Warn("🔄 Retrying operation", "op", op, "attempt", attempt, "next_in", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// backoffDelay computes the exponential delay after the given attempt.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter && delay > 0 {
		delay += time.Duration(float64(delay) * 0.1 * (rand.Float64() - 0.5))
	}
	return delay
}

// fetchRemote GETs a remote source, retrying server-side and network errors.
func fetchRemote(ctx context.Context, url string, cfg RetryConfig) (*http.Response, error) {
	var resp *http.Response
	err := withRetry(ctx, cfg, "fetch "+url, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		r, err := http.DefaultClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: GET %s: %v", errRetryable, url, err)
		}
		switch {
		case r.StatusCode == http.StatusOK:
			resp = r
			return nil
		case r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500:
			r.Body.Close()
			return fmt.Errorf("%w: GET %s returned %s", errRetryable, url, r.Status)
		default:
			r.Body.Close()
			return fmt.Errorf("%w: GET %s returned %s", model.ErrMalformedSource, url, r.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
