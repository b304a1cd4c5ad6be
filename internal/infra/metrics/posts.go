package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(postsExecutedTotal, postsMaterializedTotal, publishLatencyMs)
}

var (
	postsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_executed_total",
			Help: "Executor outcomes, labeled by result.",
		},
		[]string{"result"}, // 'posted', 'failed', 'noop', 'dropped'
	)

	postsMaterializedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_materialized_total",
			Help: "Slot materialization outcomes.",
		},
		[]string{"outcome"}, // 'created', 'skipped', 'error'
	)

	publishLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "publish_latency_ms",
			Help:    "Publish call latency distribution in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
	)
)

func IncPostExecuted(result string) {
	postsExecutedTotal.WithLabelValues(norm(result)).Inc()
}

func IncPostMaterialized(outcome string) {
	postsMaterializedTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObservePublishLatency(ms float64) {
	publishLatencyMs.Observe(ms)
}
