// Package observability holds the Prometheus metrics and OpenTelemetry tracing
// plumbing shared by the worker, the API, and the Lambda entrypoints.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the analytics engine.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Analysis metrics
	AnalysisRuns      *prometheus.CounterVec
	AnalysisDuration  *prometheus.HistogramVec
	DetectorEvents    *prometheus.CounterVec
	DetectorFailures  *prometheus.CounterVec
	InsightsStored    prometheus.Counter
	InsightFailures   prometheus.Counter
	RelationshipRuns  *prometheus.CounterVec
	ScheduledBatches  prometheus.Counter
	ScheduledFailures prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates the metrics collector with the given namespace. A
// process-wide singleton avoids duplicate registration when the DI container
// is rebuilt in tests.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	analysisRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Total number of continuity analysis runs",
		},
		[]string{"trigger", "status"},
	)

	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Continuity analysis run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)

	detectorEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_events_total",
			Help:      "Total number of continuity events produced per detector",
		},
		[]string{"detector"},
	)

	detectorFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_failures_total",
			Help:      "Total number of contained detector failures",
		},
		[]string{"detector"},
	)

	insightsStored := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_stored_total",
			Help:      "Total number of insights handed to the insight store",
		},
	)

	insightFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_failures_total",
			Help:      "Total number of failed insight store calls",
		},
	)

	relationshipRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationship_runs_total",
			Help:      "Total number of relationship analytics computations",
		},
		[]string{"source"},
	)

	scheduledBatches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_batches_total",
			Help:      "Total number of scheduled user batches processed",
		},
	)

	scheduledFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_user_failures_total",
			Help:      "Total number of per-user failures during scheduled runs",
		},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of analytics cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of analytics cache misses",
		},
	)

	registry.MustRegister(
		httpRequests, httpDuration,
		analysisRuns, analysisDuration,
		detectorEvents, detectorFailures,
		insightsStored, insightFailures,
		relationshipRuns,
		scheduledBatches, scheduledFailures,
		cacheHits, cacheMisses,
	)

	globalCollector = &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		AnalysisRuns:      analysisRuns,
		AnalysisDuration:  analysisDuration,
		DetectorEvents:    detectorEvents,
		DetectorFailures:  detectorFailures,
		InsightsStored:    insightsStored,
		InsightFailures:   insightFailures,
		RelationshipRuns:  relationshipRuns,
		ScheduledBatches:  scheduledBatches,
		ScheduledFailures: scheduledFailures,
		CacheHits:         cacheHits,
		CacheMisses:       cacheMisses,
	}
	return globalCollector
}

// Registry exposes the collector's registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
