package throttle

import "time"

// Config holds configuration for classifier call pacing and adaptive polling.
type Config struct {
	// RatePerSecond caps classifier calls (0 = unlimited)
	RatePerSecond float64
	Burst         int

	// Enabled controls whether adaptive polling is active
	Enabled bool

	// Interval bounds for the source poll
	MinPollInterval time.Duration // Fastest polling rate (default: 10s)
	MaxPollInterval time.Duration // Slowest polling rate (default: 5m)

	// Backlog thresholds for interval adjustment
	BacklogNormalThreshold int // At or below this = base interval (default: 2)
	BacklogBurstThreshold  int // Above this = slowest interval (default: 50)
}

// DefaultConfig returns sensible defaults for throttling.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		MinPollInterval:        10 * time.Second,
		MaxPollInterval:        5 * time.Minute,
		BacklogNormalThreshold: 2,
		BacklogBurstThreshold:  50,
	}
}
