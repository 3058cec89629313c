// Package resilience retries upstream feed calls that fail for transient
// reasons.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how often and how patiently a call is retried.
type Policy struct {
	// Attempts is the total number of tries, the first one included.
	// Default: 3.
	Attempts int

	// BaseDelay is the wait before the first retry. Default: 250ms.
	BaseDelay time.Duration

	// MaxDelay caps any single wait. Default: 5s.
	MaxDelay time.Duration

	// Jitter spreads each wait by ±Jitter of its length. Default: 0.2.
	Jitter float64

	// Retryable decides whether an error is worth another try.
	// Default: IsTransient.
	Retryable func(error) bool

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy is tuned for a local feed server: a few quick retries, then
// give up and let the next tick try again.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Jitter:    0.2,
	}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 250 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Delay returns the wait before retry number attempt (1-based), without
// jitter. The delay doubles per attempt and is capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

func (p Policy) jittered(attempt int) time.Duration {
	d := float64(p.Delay(attempt))
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(max(d, 0))
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx ends. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	var err error
	for attempt := 1; ; attempt++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt >= p.Attempts {
			return zero, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		t := time.NewTimer(p.jittered(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, err
		case <-t.C:
		}
	}
}

// LogRetry returns an OnRetry hook that logs each retry for operation.
func LogRetry(operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
