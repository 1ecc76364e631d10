// Package health provides system health monitoring and the HTTP API.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ComponentHealth is the health of one subsystem.
type ComponentHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
}

// PipelineHealth contains the classification pipeline metrics used for status.
type PipelineHealth struct {
	Running         bool   `json:"running"`
	Enabled         bool   `json:"enabled"`
	Backlog         int    `json:"backlog"`
	CacheSize       int    `json:"cache_size"`
	ErrorCount      int    `json:"error_count"`
	ProviderStatus  string `json:"provider_status"`
	ProviderRetryIn string `json:"provider_retry_in,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus               `json:"system_status"`
	Pipeline     PipelineHealth             `json:"pipeline"`
	Components   map[string]ComponentHealth `json:"components"`
}

// worse returns the more severe of two statuses.
func worse(a, b SystemStatus) SystemStatus {
	rank := func(s SystemStatus) int {
		switch s {
		case StatusCritical:
			return 2
		case StatusDegraded:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
