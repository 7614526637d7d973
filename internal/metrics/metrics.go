// Package metrics exposes prometheus instrumentation for the orchestration
// layer: generation traffic, poll behavior and provider configuration
// state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all orchestration metrics.
type Metrics struct {
	GenerationsTotal    *prometheus.CounterVec
	GenerationDuration  *prometheus.HistogramVec
	PollAttemptsTotal   *prometheus.CounterVec
	ConfiguredProviders prometheus.Gauge
}

// New creates a Metrics instance registered on reg. Passing a fresh
// registry per instance keeps parallel studios (and tests) isolated.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "adforge"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "requests_total",
				Help:      "Total generation requests by capability, provider and outcome",
			},
			[]string{"capability", "provider", "outcome"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "Generation request duration in seconds",
				Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"capability", "provider"},
		),
		PollAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poll",
				Name:      "attempts_total",
				Help:      "Total job status checks by provider",
			},
			[]string{"provider"},
		),
		ConfiguredProviders: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "settings",
				Name:      "configured_providers",
				Help:      "Number of providers with a stored credential",
			},
		),
	}
}

// ObserveGeneration records one finished generation request.
func (m *Metrics) ObserveGeneration(cap, provider string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.GenerationsTotal.WithLabelValues(cap, provider, outcome).Inc()
	m.GenerationDuration.WithLabelValues(cap, provider).Observe(time.Since(start).Seconds())
}

// ObservePollAttempt records one job status check.
func (m *Metrics) ObservePollAttempt(provider string) {
	m.PollAttemptsTotal.WithLabelValues(provider).Inc()
}

// SetConfiguredProviders records the credential count.
func (m *Metrics) SetConfiguredProviders(n int) {
	m.ConfiguredProviders.Set(float64(n))
}
