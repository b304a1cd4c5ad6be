package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(queueJobsTotal, schedulerTicksTotal)
}

var (
	queueJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_jobs_total",
			Help: "Queue job lifecycle events, labeled by queue, type and status.",
		},
		[]string{"queue", "type", "status"}, // 'enqueued', 'completed', 'retried', 'dead'
	)

	schedulerTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_total",
			Help: "Cron driver ticks per cadence.",
		},
		[]string{"cadence"}, // 'minute', 'hourly'
	)
)

func IncQueueJob(queue, jobType, status string) {
	queueJobsTotal.WithLabelValues(norm(queue), norm(jobType), norm(status)).Inc()
}

func IncSchedulerTick(cadence string) {
	schedulerTicksTotal.WithLabelValues(norm(cadence)).Inc()
}
