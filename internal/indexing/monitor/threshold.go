package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

const (
	DefaultNumberBound = 40
	DefaultScoreBound  = 3.5
)

// StatsSource reduces the current result cache to aggregate stats.
type StatsSource interface {
	Stats() domain.Stats
}

// Bounds supplies the current thresholds; they may change at any time.
type Bounds interface {
	Thresholds() (numberBound int, scoreBound float64)
}

// Intervention is raised once when the thresholds are crossed.
type Intervention interface {
	Open(ctx context.Context, stats domain.Stats)
}

// StaticBounds is a fixed Bounds implementation.
type StaticBounds struct {
	NumberBound int
	ScoreBound  float64
}

func (b StaticBounds) Thresholds() (int, float64) {
	return b.NumberBound, b.ScoreBound
}

// Monitor fires the intervention at most once per process.
type Monitor struct {
	stats        StatsSource
	bounds       Bounds
	intervention Intervention
	log          *slog.Logger

	mu    sync.Mutex
	fired bool
}

// New creates a threshold monitor.
func New(stats StatsSource, bounds Bounds, intervention Intervention) *Monitor {
	if bounds == nil {
		bounds = StaticBounds{NumberBound: DefaultNumberBound, ScoreBound: DefaultScoreBound}
	}
	return &Monitor{
		stats:        stats,
		bounds:       bounds,
		intervention: intervention,
		log:          slog.Default().With("component", "monitor"),
	}
}

// MaybeTrigger checks count > numberBound and average > scoreBound and opens
// the intervention the first time both hold. It reports whether it fired now.
func (m *Monitor) MaybeTrigger(ctx context.Context) bool {
	m.mu.Lock()
	if m.fired {
		m.mu.Unlock()
		return false
	}

	stats := m.stats.Stats()
	numberBound, scoreBound := m.bounds.Thresholds()
	if stats.Count <= numberBound || stats.Average <= scoreBound {
		m.mu.Unlock()
		return false
	}
	m.fired = true
	m.mu.Unlock()

	m.log.Info("Threshold crossed, opening intervention",
		"count", stats.Count,
		"average", stats.Average,
		"number_bound", numberBound,
		"score_bound", scoreBound,
	)
	if m.intervention != nil {
		m.intervention.Open(ctx, stats)
	}
	return true
}

// Fired reports whether the intervention has been shown this session.
func (m *Monitor) Fired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired
}
