package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ObservationsTotal tracks observations per source and decision
	ObservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_observations_total",
			Help: "Total number of item observations",
		},
		[]string{"source", "decision"},
	)

	// ClassificationsTotal tracks classifier calls per provider and outcome
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_classifications_total",
			Help: "Total number of classifier calls",
		},
		[]string{"provider", "outcome"},
	)

	// ClassifierErrorsTotal tracks classifier errors per provider and kind
	ClassifierErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_classifier_errors_total",
			Help: "Total number of classifier errors",
		},
		[]string{"provider", "kind"},
	)

	// ClassifierLatency tracks classifier call latency
	ClassifierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedwatch_classifier_latency_seconds",
			Help:    "Classifier call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// RatingsTotal tracks the distribution of accepted ratings
	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_ratings_total",
			Help: "Total number of accepted ratings by value",
		},
		[]string{"rating"},
	)

	// SchedulerQueued tracks tasks waiting to start
	SchedulerQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_scheduler_queued",
			Help: "Number of classification tasks waiting to start",
		},
	)

	// SchedulerInFlight tracks running tasks
	SchedulerInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_scheduler_in_flight",
			Help: "Number of classification tasks in flight",
		},
	)

	// CacheSize tracks the number of cached ratings
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_cache_size",
			Help: "Number of ratings in the result cache",
		},
	)

	// CacheAverage tracks the average cached rating
	CacheAverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_cache_average_rating",
			Help: "Average rating over the result cache",
		},
	)

	// CacheEvictionsTotal tracks evicted ratings
	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedwatch_cache_evictions_total",
			Help: "Total number of ratings evicted from the result cache",
		},
	)

	// InterventionsTotal tracks opened interventions
	InterventionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedwatch_interventions_total",
			Help: "Total number of interventions raised",
		},
	)

	// ReplayOutcomesTotal tracks replay outcomes per reason
	ReplayOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_replay_outcomes_total",
			Help: "Total number of replay target outcomes",
		},
		[]string{"result", "reason"},
	)

	// PresentationClients tracks connected websocket clients
	PresentationClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_presentation_clients",
			Help: "Number of connected presentation clients",
		},
	)

	// DBConnectionsInUse tracks audit database connections
	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_db_connections_in_use",
			Help: "Number of audit database connections in use",
		},
	)

	// SourcePollInterval tracks the current adaptive poll interval
	SourcePollInterval = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_source_poll_interval_seconds",
			Help: "Current source poll interval in seconds",
		},
	)
)
