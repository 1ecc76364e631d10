package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Backoff reports how long the classifier provider asked us to wait.
type Backoff interface {
	RetryAfter() time.Duration
}

// Limiter gates classifier calls: it honours provider retry-after windows
// and an optional token bucket.
type Limiter struct {
	limiter *rate.Limiter
	backoff Backoff
}

// NewLimiter creates a limiter. A zero rate disables the token bucket.
func NewLimiter(cfg Config, backoff Backoff) *Limiter {
	l := &Limiter{backoff: backoff}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return l
}

// Wait blocks until a call may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.backoff != nil {
		if d := l.backoff.RetryAfter(); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
