package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// IntervalLimiter enforces a minimum interval between calls.
// One instance is owned by each client; nothing is process-global.
type IntervalLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewIntervalLimiter creates a limiter allowing one call per interval
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until the next call is allowed or ctx is done
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the configured minimum interval
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}
