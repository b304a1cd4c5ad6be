package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(generationAttemptsTotal, generationLatencyMs, promptTokens)
}

var (
	generationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Generation backend calls, labeled by model and outcome.",
		},
		[]string{"model", "outcome"}, // 'ok', 'error'
	)

	generationLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_ms",
			Help:    "Generation call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		},
		[]string{"model"},
	)

	promptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_prompt_tokens",
			Help:    "Token counts of rendered prompts (best effort).",
			Buckets: []float64{16, 32, 64, 128, 256, 512, 1024, 2048},
		},
	)
)

func IncGenerationAttempt(model, outcome string) {
	generationAttemptsTotal.WithLabelValues(norm(model), norm(outcome)).Inc()
}

func ObserveGenerationLatency(model string, ms float64) {
	generationLatencyMs.WithLabelValues(norm(model)).Observe(ms)
}

func ObservePromptTokens(n int) {
	promptTokens.Observe(float64(n))
}
