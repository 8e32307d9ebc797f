package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cardbot"

// Metrics are the workflow counters exported on /metrics.
type Metrics struct {
	workflowsStarted  *prometheus.CounterVec
	workflowsFinished *prometheus.CounterVec
	outputsDelivered  *prometheus.CounterVec
	uploadsCollected  *prometheus.CounterVec
	engineDuration    *prometheus.HistogramVec
	eventsDropped     *prometheus.CounterVec
	errors            *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		workflowsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "workflows_started_total",
			Help:      "Workflows started, by kind.",
		}, []string{"kind"}),
		workflowsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "workflows_finished_total",
			Help:      "Engine runs finished, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		outputsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outputs_delivered_total",
			Help:      "Files delivered to requesters, by kind.",
		}, []string{"kind"}),
		uploadsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploads_collected_total",
			Help:      "Uploads accepted into a session, by kind.",
		}, []string{"kind"}),
		engineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "engine_duration_seconds",
			Help:      "Wall time of engine runs, by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"kind"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_dropped_total",
			Help:      "Inbound events dropped before reaching a session, by reason.",
		}, []string{"reason"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Service errors, by category.",
		}, []string{"category"}),
	}
}

// register adds the collectors plus live gauges over the session and
// artifact counts to reg.
func (m *Metrics) register(reg prometheus.Registerer, sessions, artifacts func() int) error {
	collectors := []prometheus.Collector{
		m.workflowsStarted,
		m.workflowsFinished,
		m.outputsDelivered,
		m.uploadsCollected,
		m.engineDuration,
		m.eventsDropped,
		m.errors,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Live workflow sessions.",
		}, func() float64 { return float64(sessions()) }),
	}
	if artifacts != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "artifacts_live",
			Help:      "Temporary files currently held for workflows.",
		}, func() float64 { return float64(artifacts()) }))
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) RecordError(category string) {
	m.errors.WithLabelValues(category).Inc()
}
