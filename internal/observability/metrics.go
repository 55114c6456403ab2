package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fwi"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction service.
type Metrics struct {
	Predictions        *prometheus.CounterVec   // labels: model, risk_level
	PredictionErrors   *prometheus.CounterVec   // labels: model, kind={validation,unknown_model,inference,internal}
	PredictionDuration *prometheus.HistogramVec // labels: model
	FWIValue           *prometheus.HistogramVec // labels: model

	// Cache metrics.
	Cache *prometheus.CounterVec // labels: backend={memory,redis}, result={hit,miss,error}

	// Artifact store.
	ModelsLoaded prometheus.Gauge

	// Event publishing.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewUnregisteredMetrics creates Metrics that are not attached to any
// registry, for short-lived tools that never expose /metrics.
func NewUnregisteredMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful predictions by model and risk level.",
		}, []string{"model", "risk_level"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by model and error kind.",
		}, []string{"model", "kind"}),
		PredictionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent validating, normalizing, and evaluating one request.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"model"}),
		FWIValue: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fwi_value",
			Help:      "Distribution of predicted Fire Weather Index values.",
			Buckets:   []float64{1, 5, 10, 20, 30, 50, 80, 120},
		}, []string{"model"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Prediction cache lookups by backend and result.",
		}, []string{"backend", "result"}),
		ModelsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "models_loaded",
			Help:      "Number of models in the registry.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Prediction events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewUnregisteredMetrics()
	prometheus.MustRegister(
		m.Predictions,
		m.PredictionErrors,
		m.PredictionDuration,
		m.FWIValue,
		m.Cache,
		m.ModelsLoaded,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}
