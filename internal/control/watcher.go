package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/feedwatch/internal/core/config"
	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/core/worker"
	"github.com/vietddude/feedwatch/internal/indexing/emitter"
	"github.com/vietddude/feedwatch/internal/indexing/filter"
	"github.com/vietddude/feedwatch/internal/indexing/health"
	"github.com/vietddude/feedwatch/internal/indexing/intervention"
	"github.com/vietddude/feedwatch/internal/indexing/metrics"
	"github.com/vietddude/feedwatch/internal/indexing/pipeline"
	"github.com/vietddude/feedwatch/internal/indexing/replay"
	"github.com/vietddude/feedwatch/internal/indexing/throttle"
	"github.com/vietddude/feedwatch/internal/infra/automation"
	"github.com/vietddude/feedwatch/internal/infra/classifier"
	"github.com/vietddude/feedwatch/internal/infra/presentation"
	redisclient "github.com/vietddude/feedwatch/internal/infra/redis"
	"github.com/vietddude/feedwatch/internal/infra/source"
	"github.com/vietddude/feedwatch/internal/infra/storage"
	"github.com/vietddude/feedwatch/internal/infra/storage/memory"
	"github.com/vietddude/feedwatch/internal/infra/storage/sqlstore"
)

// Watcher is the main application struct that manages the component lifecycle.
type Watcher struct {
	cfg          *config.AppConfig
	settings     *config.Store
	pipeline     *pipeline.Pipeline
	replay       *replay.Engine
	session      *intervention.Session
	hub          *presentation.Hub
	emitter      emitter.Emitter
	audit        storage.AuditRepository
	provider     *classifier.ProviderMonitor
	healthMon    *health.Monitor
	healthServer *health.Server
	grpcServer   *health.GRPCServer
	settingsW    *config.SettingsWatcher
	pruner       *worker.Pruner
	db           *sqlstore.DB
	redisClient  *redisclient.Client
	log          *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// Option overrides a component, mainly for tests and embedding.
type Option func(*options)

type options struct {
	source     source.Source
	classifier classifier.Client
	driver     automation.Driver
}

// WithSource replaces the feed poller.
func WithSource(s source.Source) Option {
	return func(o *options) { o.source = s }
}

// WithClassifier replaces the configured classifier adapter.
func WithClassifier(c classifier.Client) Option {
	return func(o *options) { o.classifier = c }
}

// WithDriver replaces the HTTP automation bridge.
func WithDriver(d automation.Driver) Option {
	return func(o *options) { o.driver = d }
}

// NewWatcher creates a new Watcher instance with all dependencies initialized.
func NewWatcher(ctx context.Context, cfg *config.AppConfig, opts ...Option) (_ *Watcher, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	w := &Watcher{
		cfg: cfg,
		log: slog.Default().With("component", "watcher"),
	}
	defer func() {
		if err != nil {
			w.closeStores()
		}
	}()

	// 1. Settings
	initial := cfg.Settings.Settings
	if cfg.Settings.File != "" {
		loaded, err := config.LoadSettings(cfg.Settings.File, initial)
		if err != nil {
			w.log.Warn("Failed to load settings file, using config values", "path", cfg.Settings.File, "error", err)
		} else {
			initial = loaded
		}
		w.settings = config.NewStore(initial)
		w.settingsW = config.NewSettingsWatcher(cfg.Settings.File, w.settings)
	} else {
		w.settings = config.NewStore(initial)
	}
	w.settings.Subscribe(func(s config.Settings) {
		w.log.Info("Settings changed", "enabled", s.Enabled, "number_bound", s.NumberBound, "score_bound", s.ScoreBound)
	})

	// 2. Audit storage
	if cfg.Database.Enabled() {
		db, err := sqlstore.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		w.db = db
		w.audit = sqlstore.NewAuditRepo(db)
		w.log.Info("Using SQL audit storage", "driver", cfg.Database.Driver)
	} else {
		w.audit = memory.NewAuditStore()
		w.log.Info("Using memory audit storage")
	}
	if cfg.Database.Retention > 0 {
		w.pruner = worker.NewPruner(cfg.Database.Retention, w.audit)
	}

	// 3. Redis (optional)
	var snapshot pipeline.Snapshot
	emitters := []emitter.Emitter{emitter.NewLog()}
	if cfg.Redis.Enabled() {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			w.log.Warn("Failed to connect to Redis, snapshot disabled", "error", err)
		} else {
			w.redisClient = rc
			snapshot = rc
			emitters = append(emitters, redisclient.NewPublisher(rc))
		}
	}

	// 4. Presentation
	w.hub = presentation.NewHub()
	emitters = append(emitters, w.hub)
	w.emitter = emitter.NewMulti(emitters...)

	// 5. Classifier
	w.provider = classifier.NewProviderMonitor()
	client := o.classifier
	if client == nil {
		client, err = classifier.New(ctx, cfg.Classifier, w.provider)
		if err != nil {
			return nil, fmt.Errorf("failed to init classifier: %w", err)
		}
	}

	// 6. Replay engine over the live window
	window, err := source.NewLiveWindow(cfg.Source.LiveWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to init live window: %w", err)
	}
	driver := o.driver
	if driver == nil && cfg.Automation.Enabled() {
		driver = automation.NewHTTPDriver(cfg.Automation)
	}
	var runner intervention.Runner
	actioned := filter.NewMemoryFilter()
	if driver != nil {
		w.replay = replay.New(cfg.Replay, window, driver,
			replay.WithProcessed(actioned),
			replay.WithOutcomeHook(recordOutcome),
			replay.WithOutcomeHook(w.auditOutcome),
		)
		runner = w.replay
	} else {
		w.log.Info("No automation bridge configured, cleanse disabled")
	}

	// 7. Intervention session; targets come from the pipeline built below
	targets := &highRisk{}
	w.session = intervention.New(cfg.Intervention, w.emitter, targets, runner, cfg.Replay.MinRating)

	// 8. Source with adaptive polling
	throttleCfg := throttle.DefaultConfig()
	throttleCfg.RatePerSecond = cfg.Pipeline.RatePerSecond
	throttleCfg.Burst = cfg.Pipeline.Burst
	throttleCfg.MinPollInterval = min(throttleCfg.MinPollInterval, cfg.Source.PollInterval)
	controller := throttle.NewAdaptiveController(cfg.Source.PollInterval, throttleCfg, w.provider)

	src := o.source
	if src == nil {
		if len(cfg.Source.Feeds) == 0 {
			w.log.Warn("No feeds configured, pipeline will stay idle")
			src = source.NewStatic()
		} else {
			src = source.NewFeedPoller(cfg.Source, func() time.Duration {
				d := controller.ComputeInterval(targets.backlog())
				metrics.SourcePollInterval.Set(d.Seconds())
				return d
			})
		}
	}

	// 9. Pipeline
	p, err := pipeline.New(pipeline.Config{
		Source:         src,
		Classifier:     client,
		Emitter:        w.emitter,
		Settings:       w.settings,
		Intervention:   w.session,
		Audit:          w.audit,
		Snapshot:       snapshot,
		Window:         window,
		Gate:           throttle.NewLimiter(throttleCfg, w.provider),
		MaxConcurrency: cfg.Pipeline.MaxConcurrency,
		CacheSize:      cfg.Pipeline.CacheSize,
		CallTimeout:    cfg.Pipeline.CallTimeout,
	})
	if err != nil {
		return nil, err
	}
	w.pipeline = p
	targets.p = p

	// 10. Health
	w.healthMon = health.NewMonitor(p, w.provider)
	if w.db != nil {
		w.healthMon.AddCheck("database", w.db.Health)
	}
	if w.redisClient != nil {
		w.healthMon.AddCheck("redis", w.redisClient.Ping)
	}

	deps := health.Deps{
		Monitor:      w.healthMon,
		Pipeline:     p,
		Settings:     w.settings,
		Intervention: w.session,
		Presentation: w.hub,
		Actioned:     actioned,
		MinRating:    cfg.Replay.MinRating,
	}
	if w.replay != nil {
		deps.Replayer = w.replay
	}
	w.healthServer = health.NewServer(deps, cfg.Server.Port)
	if cfg.Server.GRPCPort > 0 {
		w.grpcServer = health.NewGRPCServer(w.healthMon, cfg.Server.GRPCPort)
	}

	return w, nil
}

// Start starts the watcher and all its components.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	w.group = g

	g.Go(func() error {
		w.log.Info("Starting HTTP server", "port", w.cfg.Server.Port)
		if err := w.healthServer.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if w.grpcServer != nil {
		g.Go(func() error {
			return w.grpcServer.Start(gctx)
		})
	}

	g.Go(func() error {
		return w.pipeline.Start(gctx)
	})

	if w.settingsW != nil {
		g.Go(func() error {
			if err := w.settingsW.Run(gctx); err != nil {
				// Hot reload is a convenience; keep running without it
				w.log.Warn("Settings watcher stopped", "error", err)
			}
			return nil
		})
	}

	if w.pruner != nil {
		g.Go(func() error {
			w.pruner.Start(gctx)
			return nil
		})
	}

	if w.db != nil {
		w.db.StartMetricsCollector(gctx)
	}

	return nil
}

// Wait blocks until every component has returned.
func (w *Watcher) Wait() error {
	if w.group == nil {
		return nil
	}
	return w.group.Wait()
}

// Stop stops the watcher.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info("Stopping Watcher...")
	if w.cancel != nil {
		w.cancel()
	}

	var errs []error
	if err := w.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if w.grpcServer != nil {
		w.grpcServer.Stop()
	}

	if err := w.pipeline.Stop(); err != nil {
		errs = append(errs, err)
	}
	if w.replay != nil {
		w.replay.Wait()
	}
	if w.session.State().Open {
		_ = w.session.Close(ctx)
	}
	w.session.Wait()

	done := make(chan error, 1)
	go func() { done <- w.Wait() }()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("shutdown timed out: %w", ctx.Err()))
	}

	if err := w.emitter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close emitters: %w", err))
	}
	w.closeStores()
	return errors.Join(errs...)
}

func (w *Watcher) closeStores() {
	if w.redisClient != nil {
		if err := w.redisClient.Close(); err != nil {
			w.log.Warn("Failed to close Redis", "error", err)
		}
		w.redisClient = nil
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			w.log.Warn("Failed to close database", "error", err)
		}
		w.db = nil
	}
}

// Pipeline exposes the running pipeline.
func (w *Watcher) Pipeline() *pipeline.Pipeline {
	return w.pipeline
}

// Settings exposes the hot settings store.
func (w *Watcher) Settings() *config.Store {
	return w.settings
}

// Handler returns the HTTP API handler.
func (w *Watcher) Handler() http.Handler {
	return w.healthServer.Handler()
}

func (w *Watcher) auditOutcome(ctx context.Context, o domain.Outcome) {
	if err := w.audit.SaveOutcome(ctx, &o); err != nil {
		w.log.Warn("Failed to audit replay outcome", "identity", o.Identity, "error", err)
	}
}

func recordOutcome(_ context.Context, o domain.Outcome) {
	result := "failed"
	if o.Success {
		result = "succeeded"
	}
	metrics.ReplayOutcomesTotal.WithLabelValues(result, string(o.Reason)).Inc()
}

// highRisk defers target selection to a pipeline created after its consumers.
type highRisk struct {
	p *pipeline.Pipeline
}

func (h *highRisk) HighRisk(minRating int) []domain.Target {
	if h.p == nil {
		return nil
	}
	return h.p.HighRisk(minRating)
}

func (h *highRisk) backlog() int {
	if h.p == nil {
		return 0
	}
	return h.p.Backlog()
}
