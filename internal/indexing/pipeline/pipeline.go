// Package pipeline turns a stream of observed items into classifications,
// cached ratings and presentation notifications.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/cache"
	"github.com/vietddude/feedwatch/internal/indexing/emitter"
	"github.com/vietddude/feedwatch/internal/indexing/metrics"
	"github.com/vietddude/feedwatch/internal/indexing/monitor"
	"github.com/vietddude/feedwatch/internal/indexing/scheduler"
	"github.com/vietddude/feedwatch/internal/indexing/tracker"
	"github.com/vietddude/feedwatch/internal/infra/classifier"
	"github.com/vietddude/feedwatch/internal/infra/source"
	"github.com/vietddude/feedwatch/internal/infra/storage"
)

// Settings supplies the hot-reloadable toggle and thresholds.
type Settings interface {
	Enabled() bool
	Thresholds() (numberBound int, scoreBound float64)
}

// Snapshot mirrors cached ratings to an external store.
type Snapshot interface {
	SaveRating(ctx context.Context, id domain.Identity, rating int) error
	RemoveRating(ctx context.Context, id domain.Identity) error
}

// Gate delays a classification call, e.g. to respect a call rate.
type Gate interface {
	Wait(ctx context.Context) error
}

// Tracker records items so replay can resolve them later.
type Tracker interface {
	Track(item domain.Item)
}

// Config wires the pipeline dependencies.
type Config struct {
	Source       source.Source
	Classifier   classifier.Client
	Emitter      emitter.Emitter
	Settings     Settings
	Intervention monitor.Intervention

	// Optional
	Audit    storage.AuditRepository
	Snapshot Snapshot
	Window   Tracker
	Gate     Gate

	MaxConcurrency int
	CacheSize      int
	CallTimeout    time.Duration
}

// Status is a snapshot of the pipeline for health and API reporting.
type Status struct {
	Running           bool                     `json:"running"`
	Enabled           bool                     `json:"enabled"`
	Source            string                   `json:"source"`
	Provider          string                   `json:"provider"`
	CacheSize         int                      `json:"cache_size"`
	CacheCapacity     int                      `json:"cache_capacity"`
	Stats             domain.Stats             `json:"stats"`
	States            map[domain.ItemState]int `json:"states"`
	Scheduler         scheduler.Stats          `json:"scheduler"`
	InterventionFired bool                     `json:"intervention_fired"`
	LastError         string                   `json:"last_error,omitempty"`
	LastClassifiedAt  time.Time                `json:"last_classified_at,omitempty"`
}

// ItemView is one processed item as listed by the API.
type ItemView struct {
	Identity domain.Identity `json:"id"`
	Rating   int             `json:"rating"`
	Ideology int             `json:"ideology"`
	Actioned bool            `json:"actioned"`
}

// Pipeline owns the cache, tracker, scheduler and monitor of one session.
type Pipeline struct {
	cfg      Config
	cache    *cache.Priority
	tracker  *tracker.Tracker
	sched    *scheduler.Scheduler
	monitor  *monitor.Monitor
	settings Settings
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	running atomic.Bool

	mu              sync.RWMutex
	classifications map[domain.Identity]domain.Classification
	lastError       string
	lastClassified  time.Time
}

// New creates a pipeline. Source, Classifier and Emitter are required.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("pipeline: source is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("pipeline: classifier is required")
	}
	if cfg.Emitter == nil {
		return nil, fmt.Errorf("pipeline: emitter is required")
	}
	if cfg.Settings == nil {
		cfg.Settings = alwaysEnabled{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		cfg:             cfg,
		settings:        cfg.Settings,
		ctx:             ctx,
		cancel:          cancel,
		classifications: make(map[domain.Identity]domain.Classification),
		log:             slog.Default().With("component", "pipeline", "source", cfg.Source.Name()),
	}
	p.cache = cache.NewPriority(cfg.CacheSize, p.onEvict)
	p.tracker = tracker.New(p.cache)
	p.monitor = monitor.New(p.cache, p.settings, cfg.Intervention)
	p.sched = scheduler.New(ctx, scheduler.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		OnChange: func(s scheduler.Stats) {
			metrics.SchedulerQueued.Set(float64(s.Queued))
			metrics.SchedulerInFlight.Set(float64(s.InFlight))
		},
	})
	return p, nil
}

// Start consumes the source until ctx is done or Stop is called.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline already running")
	}
	defer p.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	p.log.Info("Pipeline started", "provider", p.cfg.Classifier.Name())
	err := p.cfg.Source.Run(runCtx, func(item domain.Item) {
		p.Observe(runCtx, item)
	})
	if err != nil && runCtx.Err() == nil {
		return fmt.Errorf("source %s: %w", p.cfg.Source.Name(), err)
	}
	return nil
}

// Stop cancels in-flight classifications and waits for the queue to drain.
func (p *Pipeline) Stop() error {
	p.cancel()
	p.sched.Wait()
	p.log.Info("Pipeline stopped")
	return nil
}

// Wait blocks until every queued classification has finished.
func (p *Pipeline) Wait() {
	p.sched.Wait()
}

// Observe handles one observation of an item.
func (p *Pipeline) Observe(ctx context.Context, item domain.Item) {
	sourceName := p.cfg.Source.Name()
	if !item.Extractable() {
		metrics.ObservationsTotal.WithLabelValues(sourceName, "skipped").Inc()
		return
	}
	if p.cfg.Window != nil {
		p.cfg.Window.Track(item)
	}

	decision := p.tracker.Observe(item.Identity, p.settings.Enabled())
	metrics.ObservationsTotal.WithLabelValues(sourceName, decision.Action.String()).Inc()

	switch decision.Action {
	case tracker.ActionCached:
		c, ok := p.classification(item.Identity)
		if !ok {
			c = domain.Classification{Rating: decision.Rating, Ideology: domain.IdeologyUnscored}
		}
		p.emit(ctx, domain.ItemNotification(item.Identity, domain.StateDone, &c, nil))
	case tracker.ActionEnqueue:
		p.sched.Enqueue(func(ctx context.Context) error {
			return p.classify(ctx, item)
		})
	}
}

// Backlog returns queued plus in-flight classifications.
func (p *Pipeline) Backlog() int {
	s := p.sched.Stats()
	return s.Queued + s.InFlight
}

// classify runs one classification task. Every path out of it leaves the
// identity done or error.
func (p *Pipeline) classify(ctx context.Context, item domain.Item) (err error) {
	id := item.Identity
	provider := p.cfg.Classifier.Name()
	defer func() {
		if r := recover(); r != nil {
			err = p.fail(ctx, id, fmt.Errorf("classify panicked: %v", r))
		}
	}()
	p.emit(ctx, domain.ItemNotification(id, domain.StatePending, nil, nil))

	if p.cfg.Gate != nil {
		if gerr := p.cfg.Gate.Wait(ctx); gerr != nil {
			return p.fail(ctx, id, fmt.Errorf("gate: %w", gerr))
		}
	}

	ctx, span := otel.Tracer("pipeline").Start(ctx, "Pipeline.Classify")
	defer span.End()
	span.SetAttributes(
		attribute.String("item.identity", string(id)),
		attribute.String("classifier.provider", provider),
	)

	callCtx := ctx
	if p.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	c, err := p.cfg.Classifier.Classify(callCtx, classifier.RequestFromItem(&item))
	metrics.ClassifierLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(classifier.ClassifyError(err)))
		return p.fail(ctx, id, err)
	}

	span.SetAttributes(
		attribute.Int("classification.rating", c.Rating),
		attribute.Int("classification.ideology", c.Ideology),
	)
	span.SetStatus(codes.Ok, "classified")

	p.mu.Lock()
	p.classifications[id] = c
	p.lastClassified = time.Now()
	p.mu.Unlock()

	p.cache.Insert(id, c.Rating)
	p.tracker.Complete(id)

	stats := p.cache.Stats()
	metrics.ClassificationsTotal.WithLabelValues(provider, "done").Inc()
	metrics.RatingsTotal.WithLabelValues(strconv.Itoa(c.Rating)).Inc()
	metrics.CacheSize.Set(float64(p.cache.Len()))
	metrics.CacheAverage.Set(stats.Average)

	p.log.Debug("Item classified", "identity", id, "rating", c.Rating, "ideology", c.Ideology)
	p.emit(ctx, domain.ItemNotification(id, domain.StateDone, &c, nil))
	p.audit(ctx, &domain.ClassificationRecord{
		Identity: id,
		State:    domain.StateDone,
		Rating:   c.Rating,
		Ideology: c.Ideology,
	})
	if p.cfg.Snapshot != nil {
		if err := p.cfg.Snapshot.SaveRating(ctx, id, c.Rating); err != nil {
			p.log.Warn("Failed to save rating snapshot", "identity", id, "error", err)
		}
	}

	if p.monitor.MaybeTrigger(ctx) {
		metrics.InterventionsTotal.Inc()
	}
	return nil
}

// fail moves id to error and reports it. It is a no-op for an identity
// that already left pending.
func (p *Pipeline) fail(ctx context.Context, id domain.Identity, err error) error {
	if !p.tracker.Fail(id) {
		return err
	}
	provider := p.cfg.Classifier.Name()
	kind := classifier.ClassifyError(err)
	metrics.ClassificationsTotal.WithLabelValues(provider, "error").Inc()
	metrics.ClassifierErrorsTotal.WithLabelValues(provider, string(kind)).Inc()

	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()

	p.log.Warn("Classification failed", "identity", id, "kind", kind, "error", err)
	p.emit(ctx, domain.ItemNotification(id, domain.StateError, nil, err))
	p.audit(ctx, &domain.ClassificationRecord{
		Identity: id,
		State:    domain.StateError,
		Error:    err.Error(),
	})
	return fmt.Errorf("classify %s: %w", id, err)
}

func (p *Pipeline) onEvict(e cache.Entry) {
	p.mu.Lock()
	delete(p.classifications, e.Identity)
	p.mu.Unlock()

	metrics.CacheEvictionsTotal.Inc()
	if p.cfg.Snapshot != nil {
		if err := p.cfg.Snapshot.RemoveRating(p.ctx, e.Identity); err != nil {
			p.log.Warn("Failed to remove rating snapshot", "identity", e.Identity, "error", err)
		}
	}
}

func (p *Pipeline) emit(ctx context.Context, n domain.Notification) {
	if err := p.cfg.Emitter.Emit(ctx, n); err != nil {
		p.log.Warn("Failed to emit notification", "identity", n.Identity, "state", n.State, "error", err)
	}
}

func (p *Pipeline) audit(ctx context.Context, rec *domain.ClassificationRecord) {
	if p.cfg.Audit == nil {
		return
	}
	rec.ID = uuid.NewString()
	rec.Model = p.cfg.Classifier.Name()
	rec.CreatedAt = time.Now()
	if err := p.cfg.Audit.SaveClassification(ctx, rec); err != nil {
		p.log.Warn("Failed to audit classification", "identity", rec.Identity, "error", err)
	}
}

func (p *Pipeline) classification(id domain.Identity) (domain.Classification, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.classifications[id]
	return c, ok
}

// State returns the lifecycle state of id.
func (p *Pipeline) State(id domain.Identity) domain.ItemState {
	return p.tracker.State(id)
}

// Stats returns the aggregate over the cached ratings.
func (p *Pipeline) Stats() domain.Stats {
	return p.cache.Stats()
}

// HighRisk returns replay targets rated >= minRating, highest first.
func (p *Pipeline) HighRisk(minRating int) []domain.Target {
	ids := p.cache.Select(minRating)
	targets := make([]domain.Target, len(ids))
	for i, id := range ids {
		targets[i] = domain.Target{Identity: id}
	}
	return targets
}

// Items lists every cached item. The cache is left untouched.
func (p *Pipeline) Items() []ItemView {
	entries := p.cache.Entries()
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ItemView, 0, len(entries))
	for _, e := range entries {
		ideology := domain.IdeologyUnscored
		if c, ok := p.classifications[e.Identity]; ok {
			ideology = c.Ideology
		}
		out = append(out, ItemView{Identity: e.Identity, Rating: e.Rating, Ideology: ideology})
	}
	return out
}

// Status returns a snapshot of the pipeline.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	lastError, lastClassified := p.lastError, p.lastClassified
	p.mu.RUnlock()

	return Status{
		Running:           p.running.Load(),
		Enabled:           p.settings.Enabled(),
		Source:            p.cfg.Source.Name(),
		Provider:          p.cfg.Classifier.Name(),
		CacheSize:         p.cache.Len(),
		CacheCapacity:     p.cache.Capacity(),
		Stats:             p.cache.Stats(),
		States:            p.tracker.Counts(),
		Scheduler:         p.sched.Stats(),
		InterventionFired: p.monitor.Fired(),
		LastError:         lastError,
		LastClassifiedAt:  lastClassified,
	}
}

type alwaysEnabled struct{}

func (alwaysEnabled) Enabled() bool { return true }

func (alwaysEnabled) Thresholds() (int, float64) {
	return monitor.DefaultNumberBound, monitor.DefaultScoreBound
}
