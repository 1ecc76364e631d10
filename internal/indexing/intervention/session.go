package intervention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/emitter"
)

var (
	// ErrNotOpen is returned for actions on a closed overlay.
	ErrNotOpen = errors.New("intervention not open")
	// ErrNoReplay is returned by Cleanse when no automation is configured.
	ErrNoReplay = errors.New("no automation configured")
)

// TargetSource selects high-severity items.
type TargetSource interface {
	HighRisk(minRating int) []domain.Target
}

// Runner suppresses targets.
type Runner interface {
	Run(ctx context.Context, targets []domain.Target) []domain.Outcome
}

// CleanseStatus is the result shown on the cleanse button.
type CleanseStatus string

const (
	CleanseDone    CleanseStatus = "cleansed"
	CleanseNothing CleanseStatus = "nothing to cleanse"
	CleanseError   CleanseStatus = "error"
)

// CleanseResult summarises one cleanse action.
type CleanseResult struct {
	Status    CleanseStatus    `json:"status"`
	Targets   int              `json:"targets"`
	Succeeded int              `json:"succeeded"`
	Outcomes  []domain.Outcome `json:"outcomes,omitempty"`
}

// State is a snapshot of the overlay.
type State struct {
	SessionID string                   `json:"session_id,omitempty"`
	Open      bool                     `json:"open"`
	Shown     bool                     `json:"shown"`
	Phase     domain.InterventionPhase `json:"phase,omitempty"`
	Track     string                   `json:"track,omitempty"`
	Remaining string                   `json:"remaining,omitempty"`
	Progress  float64                  `json:"progress"`
	Zen       string                   `json:"zen,omitempty"`
	Stats     domain.Stats             `json:"stats"`
}

// Session is the intervention overlay. It is opened by the threshold
// monitor and driven by the user through break, cleanse and close.
type Session struct {
	cfg       Config
	emitter   emitter.Emitter
	targets   TargetSource
	runner    Runner
	minRating int
	pick      func(n int) int
	log       *slog.Logger

	mu          sync.Mutex
	state       State
	cancelBreak context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a session. runner may be nil when no automation is available.
func New(cfg Config, em emitter.Emitter, targets TargetSource, runner Runner, minRating int) *Session {
	return &Session{
		cfg:       cfg.WithDefaults(),
		emitter:   em,
		targets:   targets,
		runner:    runner,
		minRating: minRating,
		pick:      rand.IntN,
		log:       slog.Default().With("component", "intervention"),
	}
}

// Open shows the overlay and picks an ambient track.
func (s *Session) Open(ctx context.Context, stats domain.Stats) {
	s.mu.Lock()
	if s.state.Open {
		s.mu.Unlock()
		return
	}
	s.state = State{
		SessionID: uuid.NewString(),
		Open:      true,
		Shown:     true,
		Phase:     domain.PhaseOpened,
		Track:     s.cfg.Tracks[s.pick(len(s.cfg.Tracks))],
		Remaining: formatRemaining(s.cfg.BreakDuration),
		Stats:     stats,
	}
	ev := s.eventLocked(domain.PhaseOpened)
	ev.Title = Title
	ev.Message = Message
	ev.Stats = &stats
	s.mu.Unlock()

	s.log.Info("Intervention opened", "session_id", ev.SessionID, "track", ev.Track, "count", stats.Count, "average", stats.Average)
	s.publish(ctx, ev)
}

// StartBreak starts the countdown. Calling it again while running is a no-op.
func (s *Session) StartBreak(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.Open {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if s.cancelBreak != nil {
		s.mu.Unlock()
		return nil
	}
	breakCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelBreak = cancel
	s.state.Phase = domain.PhaseBreak
	s.state.Zen = ZenMessages[0]
	ev := s.eventLocked(domain.PhaseBreak)
	ev.Message = ZenMessages[0]
	s.mu.Unlock()

	s.publish(ctx, ev)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runBreak(breakCtx)
	}()
	return nil
}

func (s *Session) runBreak(ctx context.Context) {
	total := int(s.cfg.BreakDuration / s.cfg.TickInterval)
	zenEvery := int(s.cfg.ZenInterval / s.cfg.TickInterval)
	if total < 1 {
		total = 1
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for elapsed := 1; elapsed <= total; elapsed++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		left := total - elapsed
		s.mu.Lock()
		s.state.Remaining = formatRemaining(time.Duration(left) * s.cfg.TickInterval)
		s.state.Progress = float64(elapsed) / float64(total) * 100
		tick := s.eventLocked(domain.PhaseTick)
		var zen *domain.InterventionEvent
		if zenEvery > 0 && elapsed%zenEvery == 0 && left > 0 {
			s.state.Zen = ZenMessages[s.pick(len(ZenMessages))]
			z := s.eventLocked(domain.PhaseZen)
			z.Message = s.state.Zen
			zen = &z
		}
		s.mu.Unlock()

		s.publish(ctx, tick)
		if zen != nil {
			s.publish(ctx, *zen)
		}
	}

	s.log.Info("Break complete")
	s.close(context.WithoutCancel(ctx), "break complete")
}

// Cleanse stops any break, suppresses every cached item rated at or above
// the configured minimum and closes the overlay.
func (s *Session) Cleanse(ctx context.Context) (CleanseResult, error) {
	s.mu.Lock()
	if !s.state.Open {
		s.mu.Unlock()
		return CleanseResult{}, ErrNotOpen
	}
	s.stopBreakLocked()
	s.state.Phase = domain.PhaseCleanse
	ev := s.eventLocked(domain.PhaseCleanse)
	ev.Message = "Cleansing..."
	s.mu.Unlock()
	s.publish(ctx, ev)

	result, err := s.cleanse(ctx)

	s.mu.Lock()
	done := s.eventLocked(domain.PhaseCleansed)
	s.mu.Unlock()
	switch result.Status {
	case CleanseDone:
		done.Message = "Feed Cleansed!"
	case CleanseNothing:
		done.Message = "No content to cleanse"
	default:
		done.Message = "Error"
	}
	s.publish(ctx, done)

	s.close(ctx, string(result.Status))
	return result, err
}

func (s *Session) cleanse(ctx context.Context) (CleanseResult, error) {
	targets := s.targets.HighRisk(s.minRating)
	result := CleanseResult{Targets: len(targets)}
	if len(targets) == 0 {
		result.Status = CleanseNothing
		return result, nil
	}
	if s.runner == nil {
		result.Status = CleanseError
		return result, ErrNoReplay
	}

	result.Outcomes = s.runner.Run(ctx, targets)
	for _, o := range result.Outcomes {
		if o.Success {
			result.Succeeded++
		}
	}
	result.Status = CleanseDone
	s.log.Info("Feed cleansed", "targets", result.Targets, "succeeded", result.Succeeded)
	return result, nil
}

// Close dismisses the overlay.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	open := s.state.Open
	s.mu.Unlock()
	if !open {
		return ErrNotOpen
	}
	s.close(ctx, "dismissed")
	return nil
}

func (s *Session) close(ctx context.Context, reason string) {
	s.mu.Lock()
	if !s.state.Open {
		s.mu.Unlock()
		return
	}
	s.stopBreakLocked()
	s.state.Open = false
	s.state.Phase = domain.PhaseClosed
	ev := s.eventLocked(domain.PhaseClosed)
	ev.Message = reason
	s.mu.Unlock()

	s.publish(ctx, ev)
}

func (s *Session) stopBreakLocked() {
	if s.cancelBreak != nil {
		s.cancelBreak()
		s.cancelBreak = nil
	}
}

// State returns a snapshot of the overlay.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until a running break timer exits.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) eventLocked(phase domain.InterventionPhase) domain.InterventionEvent {
	return domain.InterventionEvent{
		SessionID: s.state.SessionID,
		Phase:     phase,
		Track:     s.state.Track,
		Remaining: s.state.Remaining,
		Progress:  s.state.Progress,
	}
}

func (s *Session) publish(ctx context.Context, ev domain.InterventionEvent) {
	if s.emitter == nil {
		return
	}
	n := domain.Notification{
		Type:         domain.NotificationIntervention,
		Intervention: &ev,
		At:           time.Now(),
	}
	if err := s.emitter.Emit(ctx, n); err != nil {
		s.log.Warn("Failed to publish intervention event", "phase", ev.Phase, "error", err)
	}
}

func formatRemaining(d time.Duration) string {
	sec := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
