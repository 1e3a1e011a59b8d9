// Package metrics exposes Prometheus instrumentation for the session
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "solace"

// Exchange outcomes reported to the exchanges counter.
const (
	OutcomeReply   = "reply"
	OutcomeCrisis  = "crisis"
	OutcomeIgnored = "ignored"
)

// Metrics holds the engine's instruments. A nil *Metrics is valid and
// records nothing, so tests can pass nil.
type Metrics struct {
	exchanges          *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	completionDuration prometheus.Histogram
	completionFailures *prometheus.CounterVec
}

// New creates and registers the engine's instruments.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Inbound messages handled, by outcome",
			},
			[]string{"outcome"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of open conversation sessions",
			},
		),
		completionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_duration_seconds",
				Help:      "Duration of completion service calls in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 15},
			},
		),
		completionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completion_failures_total",
				Help:      "Completion calls recovered into fallback replies, by failure kind",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(m.exchanges, m.activeSessions, m.completionDuration, m.completionFailures)
	return m
}

// Exchange records one handled inbound message.
func (m *Metrics) Exchange(outcome string) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// CompletionCall records the duration of one completion service call.
func (m *Metrics) CompletionCall(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.completionDuration.Observe(elapsed.Seconds())
}

// CompletionFailure records a completion failure by kind.
func (m *Metrics) CompletionFailure(kind string) {
	if m == nil {
		return
	}
	m.completionFailures.WithLabelValues(kind).Inc()
}
