package jobs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	enqueueTotal  *prometheus.CounterVec
	dispatchTotal *prometheus.CounterVec
	deadTotal     *prometheus.CounterVec

	dispatchLatency *prometheus.HistogramVec

	pending *prometheus.GaugeVec
	leader  *prometheus.GaugeVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		enqueueTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobs",
			Name:      "enqueue_total",
			Help:      "Total number of enqueued jobs.",
		}, []string{"table", "kind"}),
		dispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobs",
			Name:      "dispatch_total",
			Help:      "Total number of job executions by result.",
		}, []string{"table", "kind", "result"}),
		deadTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobs",
			Name:      "dead_total",
			Help:      "Total number of jobs that entered the dead state.",
		}, []string{"table", "kind"}),
		dispatchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jobs",
			Name:      "dispatch_latency_seconds",
			Help:      "Job handler latency.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"table", "kind", "result"}),
		pending: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "jobs",
			Name:      "pending",
			Help:      "Current number of unfinished jobs.",
		}, []string{"table"}),
		leader: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "jobs",
			Name:      "worker_leader",
			Help:      "Whether this instance holds the worker leader lock (1/0).",
		}, []string{"table"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
