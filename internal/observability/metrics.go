package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for computer-use dispatch.
//
// Tracked:
//   - Action dispatch counts and latencies per action kind
//   - Sandbox command executions
//   - Screenshot capture failures
type Metrics struct {
	// ActionCounter counts dispatched actions.
	// Labels: action, status (success|error)
	ActionCounter *prometheus.CounterVec

	// ActionDuration measures end-to-end dispatch latency in seconds,
	// including settle delays and screenshot capture.
	// Labels: action
	ActionDuration *prometheus.HistogramVec

	// SandboxCommandCounter counts commands executed inside the sandbox.
	// Labels: status (success|error)
	SandboxCommandCounter *prometheus.CounterVec

	// CaptureFailures counts screenshot pipeline failures.
	CaptureFailures prometheus.Counter
}

// NewMetrics creates and registers all metrics with reg. Call once at
// startup; duplicate registration panics by prometheus convention.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marionette_actions_total",
				Help: "Total number of dispatched computer-use actions by kind and status",
			},
			[]string{"action", "status"},
		),
		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marionette_action_duration_seconds",
				Help:    "Duration of action dispatch in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"action"},
		),
		SandboxCommandCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marionette_sandbox_commands_total",
				Help: "Total number of sandbox command executions by status",
			},
			[]string{"status"},
		),
		CaptureFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marionette_capture_failures_total",
				Help: "Total number of failed screenshot captures",
			},
		),
	}
}

// RecordAction records one dispatched action.
func (m *Metrics) RecordAction(action string, err error, seconds float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ActionCounter.WithLabelValues(action, status).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(seconds)
}
