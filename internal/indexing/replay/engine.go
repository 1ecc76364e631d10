package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/filter"
	"github.com/vietddude/feedwatch/internal/infra/automation"
)

// ErrMenuTimeout is returned when no matching menu entry appeared in time.
var ErrMenuTimeout = errors.New("menu entry not found")

// Resolver maps an identity to a live UI handle.
type Resolver interface {
	Resolve(id domain.Identity) (string, error)
}

// OutcomeFunc observes every per-target outcome.
type OutcomeFunc func(ctx context.Context, outcome domain.Outcome)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures an Engine.
type Option func(*Engine)

// WithProcessed shares the set of already actioned identities.
func WithProcessed(f filter.Filter) Option {
	return func(e *Engine) { e.processed = f }
}

// WithOutcomeHook registers fn for every outcome.
func WithOutcomeHook(fn OutcomeFunc) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, fn) }
}

// WithSleep replaces the wait used for the initial delay and pauses.
func WithSleep(fn SleepFunc) Option {
	return func(e *Engine) { e.sleep = fn }
}

// WithPause replaces the random pause generator.
func WithPause(fn func() time.Duration) Option {
	return func(e *Engine) { e.pause = fn }
}

// Engine applies the "not interested" action to targets one at a time.
type Engine struct {
	cfg       Config
	resolver  Resolver
	driver    automation.Driver
	processed filter.Filter
	hooks     []OutcomeFunc
	sleep     SleepFunc
	pause     func() time.Duration
	log       *slog.Logger

	// batches never interleave
	runMu sync.Mutex
	wg    sync.WaitGroup
}

// New creates a replay engine.
func New(cfg Config, resolver Resolver, driver automation.Driver, opts ...Option) *Engine {
	cfg = cfg.WithDefaults()
	e := &Engine{
		cfg:       cfg,
		resolver:  resolver,
		driver:    driver,
		processed: filter.NewMemoryFilter(),
		sleep:     sleepCtx,
		log:       slog.Default().With("component", "replay"),
	}
	e.pause = func() time.Duration {
		span := int64(cfg.MaxPause - cfg.MinPause)
		if span <= 0 {
			return cfg.MinPause
		}
		return cfg.MinPause + time.Duration(rand.Int64N(span+1))
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Processed reports whether id has already been actioned.
func (e *Engine) Processed(id domain.Identity) bool {
	return e.processed.Contains(id)
}

// Run processes targets strictly in order and returns one outcome per
// target. A failing target never stops the batch, and neither does ctx:
// only its values are kept.
func (e *Engine) Run(ctx context.Context, targets []domain.Target) []domain.Outcome {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	ctx = context.WithoutCancel(ctx)

	batchID := uuid.NewString()
	ctx, span := otel.Tracer("replay").Start(ctx, "Replay.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("replay.batch_id", batchID),
		attribute.Int("replay.targets", len(targets)),
	)

	e.log.Info("Replay batch started", "batch_id", batchID, "targets", len(targets))

	outcomes := make([]domain.Outcome, 0, len(targets))
	succeeded := 0
	for i, target := range targets {
		outcome := e.runOne(ctx, target)
		outcome.BatchID = batchID
		outcome.Index = i
		outcome.At = time.Now()
		if outcome.Success {
			succeeded++
		} else {
			e.log.Debug("Replay target failed",
				"batch_id", batchID,
				"index", i,
				"identity", target.Identity,
				"reason", outcome.Reason,
				"error", outcome.Error,
			)
		}
		span.AddEvent("replay.outcome", trace.WithAttributes(
			attribute.Int("replay.index", i),
			attribute.String("replay.identity", string(target.Identity)),
			attribute.Bool("replay.success", outcome.Success),
			attribute.String("replay.reason", string(outcome.Reason)),
		))
		outcomes = append(outcomes, outcome)
		for _, hook := range e.hooks {
			hook(ctx, outcome)
		}
	}

	span.SetAttributes(attribute.Int("replay.succeeded", succeeded))
	if succeeded < len(targets) {
		span.SetStatus(codes.Error, "some targets failed")
	} else {
		span.SetStatus(codes.Ok, "all targets processed")
	}
	e.log.Info("Replay batch complete",
		"batch_id", batchID,
		"targets", len(targets),
		"succeeded", succeeded,
		"failed", len(targets)-succeeded,
	)
	return outcomes
}

// RunAsync runs a batch in the background. Outcomes reach the hooks only.
func (e *Engine) RunAsync(ctx context.Context, targets []domain.Target) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Run(ctx, targets)
	}()
}

// Wait blocks until background batches finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) runOne(ctx context.Context, target domain.Target) domain.Outcome {
	outcome := domain.Outcome{Identity: target.Identity}
	fail := func(reason domain.FailureReason, err error) domain.Outcome {
		outcome.Reason = reason
		if err != nil {
			outcome.Error = err.Error()
		}
		return outcome
	}

	handle, err := e.resolver.Resolve(target.Identity)
	if err != nil {
		return fail(domain.ReasonUnresolvable, err)
	}
	if e.processed.Contains(target.Identity) {
		return fail(domain.ReasonAlreadyActioned, nil)
	}

	reason, err := e.suppress(ctx, handle)

	// Attempted targets are never retried, whatever the result.
	e.processed.Add(target.Identity)
	if perr := e.sleep(ctx, e.pause()); perr != nil && err == nil {
		e.log.Debug("Pause interrupted", "error", perr)
	}

	if err != nil {
		return fail(reason, err)
	}
	outcome.Success = true
	return outcome
}

func (e *Engine) suppress(ctx context.Context, handle string) (domain.FailureReason, error) {
	if err := e.driver.OpenActions(ctx, handle); err != nil {
		if errors.Is(err, automation.ErrNoAffordance) {
			return domain.ReasonNoAffordance, err
		}
		return domain.ReasonDriverError, fmt.Errorf("open actions: %w", err)
	}

	entry, err := e.waitForEntry(ctx)
	if err != nil {
		if errors.Is(err, ErrMenuTimeout) {
			return domain.ReasonMenuTimeout, err
		}
		return domain.ReasonDriverError, err
	}

	if err := e.driver.Click(ctx, entry); err != nil {
		return domain.ReasonDriverError, fmt.Errorf("click %q: %w", entry.Label, err)
	}
	return domain.ReasonNone, nil
}

// waitForEntry polls the open menu for a matching entry: one look after the
// initial delay, then up to MaxAttempts-1 more at PollInterval.
func (e *Engine) waitForEntry(ctx context.Context) (automation.MenuEntry, error) {
	if err := e.sleep(ctx, e.cfg.InitialDelay); err != nil {
		return automation.MenuEntry{}, err
	}

	var found automation.MenuEntry
	backoff := retry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), retry.NewConstant(e.cfg.PollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		entries, err := e.driver.MenuEntries(ctx)
		if err != nil {
			if errors.Is(err, automation.ErrNoMenu) {
				return retry.RetryableError(ErrMenuTimeout)
			}
			return err
		}
		if entry, ok := MatchEntry(entries, e.cfg.Phrases); ok {
			found = entry
			return nil
		}
		return retry.RetryableError(ErrMenuTimeout)
	})
	if err != nil {
		return automation.MenuEntry{}, err
	}
	return found, nil
}

// MatchEntry returns the first entry whose label contains one of phrases,
// case-insensitively.
func MatchEntry(entries []automation.MenuEntry, phrases []string) (automation.MenuEntry, bool) {
	for _, entry := range entries {
		label := strings.ToLower(entry.Label)
		for _, phrase := range phrases {
			if strings.Contains(label, strings.ToLower(phrase)) {
				return entry, true
			}
		}
	}
	return automation.MenuEntry{}, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
