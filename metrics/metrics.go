package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Aggregator runs
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_runs_total",
			Help: "Total number of aggregator runs",
		},
		[]string{"stage", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trends_run_duration_seconds",
			Help:    "Aggregator run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"stage"},
	)

	AreaOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_area_outcomes_total",
			Help: "Per-area outcomes of daily runs",
		},
		[]string{"area", "status"},
	)

	PostsCollectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_posts_collected_total",
			Help: "Total number of posts returned by the post source",
		},
		[]string{"area"},
	)

	// Analyzer metrics
	AnalyzerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_analyzer_calls_total",
			Help: "Total number of LLM calls",
		},
		[]string{"operation", "status"},
	)

	AnalyzerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trends_analyzer_call_duration_seconds",
			Help:    "LLM call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_llm_tokens_total",
			Help: "Total number of LLM tokens consumed",
		},
		[]string{"direction"},
	)

	// Store metrics
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_store_operations_total",
			Help: "Total number of document store operations",
		},
		[]string{"operation", "kind", "status"},
	)

	// Event metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_events_published_total",
			Help: "Total number of artifact events published",
		},
		[]string{"backend", "status"},
	)

	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version"},
	)
)

// Init records static application information.
func Init(serviceName, version string) {
	ApplicationInfo.WithLabelValues(serviceName, version).Set(1)
}
