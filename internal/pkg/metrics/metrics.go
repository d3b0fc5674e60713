package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the pipeline's Prometheus collectors. All names carry the
// "research_" prefix.
type Metrics struct {
	FilterResultsTotal *prometheus.CounterVec

	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram

	GenerationTotal    *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec

	ApprovalsCreatedTotal *prometheus.CounterVec
	ApprovalsDecidedTotal *prometheus.CounterVec
	ApprovalsEscalated    prometheus.Counter

	SessionCacheHits   prometheus.Counter
	SessionCacheMisses prometheus.Counter
	MemoryTrimsTotal   prometheus.Counter
	SessionsCleaned    prometheus.Counter
}

// NewMetrics registers the collectors once per process and returns the shared set.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			FilterResultsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "research_filter_results_total",
					Help: "Queries seen by the relevance filter, by reason code",
				},
				[]string{"reason"},
			),
			CyclesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "research_cycles_total",
					Help: "Processing cycles run, by outcome",
				},
				[]string{"outcome"}, // completed, empty, failed
			),
			CycleDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "research_cycle_duration_seconds",
					Help:    "Wall time of a processing cycle including persistence",
					Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
				},
			),
			GenerationTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "research_generation_total",
					Help: "Generation calls, by outcome",
				},
				[]string{"outcome"}, // ok, degraded
			),
			GenerationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "research_generation_duration_seconds",
					Help:    "Generation latency by query type",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"query_type"},
			),
			ApprovalsCreatedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "research_approvals_created_total",
					Help: "Approval requests created, by content type",
				},
				[]string{"content_type"},
			),
			ApprovalsDecidedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "research_approvals_decided_total",
					Help: "Review decisions recorded, by status",
				},
				[]string{"status"},
			),
			ApprovalsEscalated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "research_approvals_escalated_total",
				Help: "Approval requests escalated to urgent",
			}),
			SessionCacheHits: promauto.NewCounter(prometheus.CounterOpts{
				Name: "research_session_cache_hits_total",
				Help: "Session loads served from cache",
			}),
			SessionCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
				Name: "research_session_cache_misses_total",
				Help: "Session loads that went to the database",
			}),
			MemoryTrimsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "research_memory_trims_total",
				Help: "Cycles that evicted short-term memory",
			}),
			SessionsCleaned: promauto.NewCounter(prometheus.CounterOpts{
				Name: "research_sessions_cleaned_total",
				Help: "Sessions removed by retention cleanup",
			}),
		}
	})
	return globalMetrics
}
