package auth

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// registerOrReuse registers the collector, adopting the already
// registered one when another instance in the process won the race.
// Without adoption a duplicate would increment counters that never
// reach the exposition endpoint.
func registerOrReuse(registerer prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
	}
	return c
}

// Metrics holds Prometheus metrics for token verification.
type Metrics struct {
	verificationsTotal   *prometheus.CounterVec
	verificationDuration prometheus.Histogram
	registerer           prometheus.Registerer
}

// NewMetrics creates a new Metrics instance.
// Metrics are registered with prometheus.DefaultRegisterer so they are
// automatically exposed on the default /metrics endpoint.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a new Metrics instance with a custom registerer.
// This is useful for testing where a private registry is preferred.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "olympus"
	}

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registerer: registerer,
	}

	m.verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verifications_total",
			Help:      "Total number of token verifications",
		},
		[]string{"result", "reason"},
	)

	m.verificationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verification_duration_seconds",
			Help:      "Token verification duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	m.verificationsTotal = registerOrReuse(m.registerer, m.verificationsTotal).(*prometheus.CounterVec)
	m.verificationDuration = registerOrReuse(m.registerer, m.verificationDuration).(prometheus.Histogram)

	return m
}

// RecordVerification records the outcome of a single token verification.
// The reason label is empty for successes and carries the failure class
// (expired, invalid_signature, malformed, ...) otherwise.
func (m *Metrics) RecordVerification(result, reason string, duration time.Duration) {
	m.verificationsTotal.WithLabelValues(result, reason).Inc()
	m.verificationDuration.Observe(duration.Seconds())
}
