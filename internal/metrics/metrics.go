// Package metrics exposes Prometheus metrics for the planning and execution
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal *prometheus.CounterVec

	// Validation metrics
	ValidationsTotal *prometheus.CounterVec

	// Execution metrics
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	StepsTotal        *prometheus.CounterVec

	// Scheduler metrics
	ScheduledRunsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"path", "method"},
		),

		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_validations_total",
				Help: "Total number of plan validations",
			},
			[]string{"outcome"},
		),

		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_executions_total",
				Help: "Total number of plan executions",
			},
			[]string{"status"},
		),
		ExecutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "plan_execution_duration_seconds",
				Help:    "Duration of plan executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_steps_total",
				Help: "Total number of executed plan steps",
			},
			[]string{"status"},
		),

		ScheduledRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduled_runs_total",
				Help: "Total number of scheduled plan runs",
			},
			[]string{"status"},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.RequestsTotal)
	m.registry.MustRegister(m.ValidationsTotal)
	m.registry.MustRegister(m.ExecutionsTotal)
	m.registry.MustRegister(m.ExecutionDuration)
	m.registry.MustRegister(m.StepsTotal)
	m.registry.MustRegister(m.ScheduledRunsTotal)
}

// RecordValidation counts a validation by outcome.
func (m *Metrics) RecordValidation(valid bool) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
}

// RecordExecution counts an execution and observes its duration.
func (m *Metrics) RecordExecution(success bool, seconds float64) {
	status := "failure"
	if success {
		status = "success"
	}
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDuration.Observe(seconds)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
