package classifier

import (
	"testing"
	"time"
)

func TestProviderMonitor_Status(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	pm := NewProviderMonitor()
	pm.now = func() time.Time { return now }

	if pm.Status() != StatusHealthy {
		t.Fatalf("expected healthy")
	}

	pm.RecordThrottle(429, "2")
	if pm.Status() != StatusThrottled {
		t.Errorf("expected throttled, got %s", pm.Status())
	}
	if got := pm.RetryAfter(); got != 2*time.Second {
		t.Errorf("expected 2s retry-after, got %s", got)
	}

	now = now.Add(3 * time.Second)
	if pm.Status() != StatusHealthy {
		t.Errorf("expected healthy after retry window, got %s", pm.Status())
	}

	pm.RecordThrottle(403, "")
	if pm.Status() != StatusBlocked {
		t.Errorf("expected blocked, got %s", pm.Status())
	}
}

func TestProviderMonitor_Degraded(t *testing.T) {
	pm := NewProviderMonitor()
	for i := 0; i < 11; i++ {
		pm.RecordRequest(6 * time.Second)
	}
	if pm.Status() != StatusDegraded {
		t.Errorf("expected degraded, got %s", pm.Status())
	}
	if pm.Stats().AverageLatency != 6*time.Second {
		t.Errorf("unexpected average latency %s", pm.Stats().AverageLatency)
	}
}

func TestProviderMonitor_DetectThrottlePattern(t *testing.T) {
	pm := NewProviderMonitor()
	if !pm.DetectThrottlePattern("Error: Overloaded") {
		t.Errorf("expected overloaded to be detected")
	}
	if pm.DetectThrottlePattern("invalid request") {
		t.Errorf("unexpected detection")
	}
}
