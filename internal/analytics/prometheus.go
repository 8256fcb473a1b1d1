package analytics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promMetrics owns a private Prometheus registry so multiple Collectors
// (one per test, for instance) never collide on the global default
// registerer.
type promMetrics struct {
	registry *prometheus.Registry

	tasksTotal       *prometheus.CounterVec
	tokensTotal      *prometheus.CounterVec
	taskDuration     *prometheus.HistogramVec
	consensusRounds  prometheus.Counter
	agreementRate    prometheus.Histogram
}

func newPromMetrics() *promMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &promMetrics{
		registry: registry,
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conclave",
			Subsystem: "workflow",
			Name:      "tasks_total",
			Help:      "Total tasks processed by the workflow runtime, by agent and outcome.",
		}, []string{"agent", "outcome"}),
		tokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conclave",
			Subsystem: "workflow",
			Name:      "tokens_total",
			Help:      "Total tokens consumed, by agent and direction.",
		}, []string{"agent", "direction"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conclave",
			Subsystem: "workflow",
			Name:      "task_duration_seconds",
			Help:      "Task execution duration in seconds, by agent.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
		consensusRounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "conclave",
			Subsystem: "consensus",
			Name:      "decisions_total",
			Help:      "Total consensus decisions resolved.",
		}),
		agreementRate: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "conclave",
			Subsystem: "consensus",
			Name:      "agreement_rate",
			Help:      "Distribution of consensus agreement rates.",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
	}
}

func (p *promMetrics) observeTask(agent string, success bool, duration time.Duration, tokensIn, tokensOut int) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.tasksTotal.WithLabelValues(agent, outcome).Inc()
	p.tokensTotal.WithLabelValues(agent, "input").Add(float64(tokensIn))
	p.tokensTotal.WithLabelValues(agent, "output").Add(float64(tokensOut))
	p.taskDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

func (p *promMetrics) observeConsensus(agreementRate float64, achieved bool) {
	p.consensusRounds.Inc()
	p.agreementRate.Observe(agreementRate)
}

// Handler returns an http.Handler serving this Collector's metrics in the
// Prometheus exposition format.
func (p *promMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
