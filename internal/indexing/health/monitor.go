package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/pipeline"
	"github.com/vietddude/feedwatch/internal/infra/classifier"
)

const (
	// backlog above which the pipeline is considered behind
	degradedBacklog = 50
	criticalBacklog = 500
)

// PipelineSource reports the pipeline status.
type PipelineSource interface {
	Status() pipeline.Status
}

// ProviderSource reports the classifier provider state.
type ProviderSource interface {
	Status() classifier.ProviderStatus
	RetryAfter() time.Duration
}

// Checker probes an external dependency such as a database.
type Checker func(ctx context.Context) error

// Monitor aggregates health status from various system components.
type Monitor struct {
	pipeline PipelineSource
	provider ProviderSource
	checks   map[string]Checker
	cacheFor time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor. provider may be nil.
func NewMonitor(p PipelineSource, provider ProviderSource) *Monitor {
	return &Monitor{
		pipeline: p,
		provider: provider,
		checks:   make(map[string]Checker),
		cacheFor: 10 * time.Second,
	}
}

// AddCheck registers a named dependency probe.
func (m *Monitor) AddCheck(name string, check Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
	m.lastReport = nil
}

// CheckHealth builds a report. Results are reused for a short period so
// probes are not run on every request.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.cacheFor {
		return *m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth),
	}

	status := m.pipeline.Status()
	ph := PipelineHealth{
		Running:    status.Running,
		Enabled:    status.Enabled,
		Backlog:    status.Scheduler.Queued + status.Scheduler.InFlight,
		CacheSize:  status.CacheSize,
		ErrorCount: status.States[domain.StateError],
	}
	pipelineStatus := StatusHealthy
	switch {
	case !status.Running:
		pipelineStatus = StatusCritical
	case ph.Backlog > criticalBacklog:
		pipelineStatus = StatusCritical
	case ph.Backlog > degradedBacklog:
		pipelineStatus = StatusDegraded
	}
	report.Components["pipeline"] = ComponentHealth{Name: "pipeline", Status: pipelineStatus}
	report.SystemStatus = worse(report.SystemStatus, pipelineStatus)

	if m.provider != nil {
		ps := m.provider.Status()
		ph.ProviderStatus = ps.String()
		if d := m.provider.RetryAfter(); d > 0 {
			ph.ProviderRetryIn = d.Round(time.Second).String()
		}
		providerStatus := StatusHealthy
		switch ps {
		case classifier.StatusBlocked:
			providerStatus = StatusCritical
		case classifier.StatusThrottled, classifier.StatusDegraded:
			providerStatus = StatusDegraded
		}
		report.Components["classifier"] = ComponentHealth{Name: "classifier", Status: providerStatus, Detail: ps.String()}
		report.SystemStatus = worse(report.SystemStatus, providerStatus)
	}

	for name, check := range m.checks {
		ch := ComponentHealth{Name: name, Status: StatusHealthy}
		if err := check(ctx); err != nil {
			// Optional stores never take the service down
			ch.Status = StatusDegraded
			ch.Detail = err.Error()
		}
		report.Components[name] = ch
		report.SystemStatus = worse(report.SystemStatus, ch.Status)
	}

	report.Pipeline = ph
	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}
