package throttle

import (
	"sync"
	"time"
)

// AdaptiveController computes source poll intervals from the classification
// backlog and the provider state, so new observations slow down while the
// classifier is behind or rate limited.
type AdaptiveController struct {
	basePollInterval time.Duration
	config           Config
	backoff          Backoff

	mu              sync.Mutex
	currentInterval time.Duration
}

// NewAdaptiveController creates a new adaptive controller. backoff may be nil.
func NewAdaptiveController(basePollInterval time.Duration, config Config, backoff Backoff) *AdaptiveController {
	return &AdaptiveController{
		basePollInterval: basePollInterval,
		config:           config,
		backoff:          backoff,
		currentInterval:  basePollInterval,
	}
}

// ComputeInterval calculates the poll interval for a backlog.
//
// Algorithm:
//   - provider backing off: max(retry-after, base)
//   - backlog <= normal: base interval
//   - backlog <= burst: base interval x 2
//   - backlog > burst: max interval
func (c *AdaptiveController) ComputeInterval(backlog int) time.Duration {
	if !c.config.Enabled {
		return c.basePollInterval
	}

	var interval time.Duration

	switch {
	case c.backoff != nil && c.backoff.RetryAfter() > 0:
		// Provider is rate limiting; no point fetching more work
		interval = max(c.backoff.RetryAfter(), c.basePollInterval)

	case backlog <= c.config.BacklogNormalThreshold:
		interval = c.basePollInterval

	case backlog <= c.config.BacklogBurstThreshold:
		// Falling behind - give the classifier room
		interval = c.basePollInterval * 2

	default:
		// Far behind - slowest rate
		interval = c.config.MaxPollInterval
	}

	// Enforce bounds
	if interval < c.config.MinPollInterval {
		interval = c.config.MinPollInterval
	}
	if interval > c.config.MaxPollInterval {
		interval = c.config.MaxPollInterval
	}

	c.mu.Lock()
	c.currentInterval = interval
	c.mu.Unlock()
	return interval
}

// GetCurrentInterval returns the last computed interval (for metrics).
func (c *AdaptiveController) GetCurrentInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentInterval
}
