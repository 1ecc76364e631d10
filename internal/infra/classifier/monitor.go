package classifier

import (
	"strings"
	"sync"
	"time"
)

// ProviderStatus represents the health state of the classification provider.
type ProviderStatus int

const (
	StatusHealthy   ProviderStatus = iota // Provider is working normally
	StatusDegraded                        // Provider is slow but working
	StatusThrottled                       // Provider is rate limiting
	StatusBlocked                         // Provider rejected our credentials or blocked us
)

func (s ProviderStatus) String() string {
	switch s {
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "healthy"
	}
}

// MonitorStats holds monitoring statistics for the provider.
type MonitorStats struct {
	Status            string        `json:"status"`
	AverageLatency    time.Duration `json:"average_latency"`
	ThrottleCount429  int           `json:"throttle_count_429"`
	ThrottleCount403  int           `json:"throttle_count_403"`
	RequestsLast1Hour int           `json:"requests_last_1h"`
	RetryAfter        time.Duration `json:"retry_after"`
}

// ProviderMonitor tracks classifier latency and rate limiting.
type ProviderMonitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	status429Count     int
	status403Count     int
	throttlePatterns   []string
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	requestTimestamps []time.Time
	windowDuration    time.Duration

	slowResponseThreshold time.Duration
	now                   func() time.Time
}

// NewProviderMonitor creates a new monitor with default settings.
func NewProviderMonitor() *ProviderMonitor {
	return &ProviderMonitor{
		recentLatencies:  make([]time.Duration, 0, 100),
		maxLatencyWindow: 100,
		throttlePatterns: []string{
			"rate limit",
			"too many requests",
			"overloaded",
			"quota exceeded",
			"resource_exhausted",
		},
		windowDuration:        time.Hour,
		slowResponseThreshold: 5 * time.Second,
		now:                   time.Now,
	}
}

// RecordRequest records a successful call with its latency.
func (pm *ProviderMonitor) RecordRequest(latency time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	now := pm.now()

	pm.recentLatencies = append(pm.recentLatencies, latency)
	if len(pm.recentLatencies) > pm.maxLatencyWindow {
		pm.recentLatencies = pm.recentLatencies[1:]
	}

	pm.requestTimestamps = append(pm.requestTimestamps, now)
	cutoff := now.Add(-pm.windowDuration)
	i := 0
	for i < len(pm.requestTimestamps) && !pm.requestTimestamps[i].After(cutoff) {
		i++
	}
	pm.requestTimestamps = pm.requestTimestamps[i:]
}

// RecordThrottle records a rate limiting or blocking response.
func (pm *ProviderMonitor) RecordThrottle(statusCode int, retryAfter string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.lastThrottleTime = pm.now()

	switch statusCode {
	case 429:
		pm.status429Count++
		pm.retryAfterDuration = 60 * time.Second
		if d, err := time.ParseDuration(strings.TrimSpace(retryAfter) + "s"); err == nil && d > 0 {
			pm.retryAfterDuration = d
		}
	case 403:
		pm.status403Count++
		pm.retryAfterDuration = 10 * time.Minute
	}
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (pm *ProviderMonitor) DetectThrottlePattern(message string) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	lowerMsg := strings.ToLower(message)
	for _, pattern := range pm.throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}
	return false
}

// Status returns the current status of the provider.
func (pm *ProviderMonitor) Status() ProviderStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.statusLocked()
}

func (pm *ProviderMonitor) statusLocked() ProviderStatus {
	sinceThrottle := pm.now().Sub(pm.lastThrottleTime)

	if pm.status403Count > 0 && sinceThrottle < pm.retryAfterDuration {
		return StatusBlocked
	}
	if pm.status429Count > 0 && sinceThrottle < pm.retryAfterDuration {
		return StatusThrottled
	}
	if len(pm.recentLatencies) > 10 && pm.averageLocked() > pm.slowResponseThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

// RetryAfter returns the remaining time before calls should resume.
func (pm *ProviderMonitor) RetryAfter() time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.retryAfterLocked()
}

func (pm *ProviderMonitor) retryAfterLocked() time.Duration {
	if pm.retryAfterDuration > 0 {
		if remaining := pm.retryAfterDuration - pm.now().Sub(pm.lastThrottleTime); remaining > 0 {
			return remaining
		}
	}
	return 0
}

func (pm *ProviderMonitor) averageLocked() time.Duration {
	if len(pm.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range pm.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(pm.recentLatencies))
}

// Stats returns current monitoring statistics.
func (pm *ProviderMonitor) Stats() MonitorStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	cutoff := pm.now().Add(-time.Hour)
	lastHour := 0
	for _, t := range pm.requestTimestamps {
		if t.After(cutoff) {
			lastHour++
		}
	}

	return MonitorStats{
		Status:            pm.statusLocked().String(),
		AverageLatency:    pm.averageLocked(),
		ThrottleCount429:  pm.status429Count,
		ThrottleCount403:  pm.status403Count,
		RequestsLast1Hour: lastHour,
		RetryAfter:        pm.retryAfterLocked(),
	}
}
