package authz

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// registerOrReuse registers the collector, adopting the already
// registered one when another instance in the process won the race.
func registerOrReuse(registerer prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
	}
	return c
}

// Metrics holds Prometheus metrics for authorization decisions.
type Metrics struct {
	decisionsTotal *prometheus.CounterVec
	registerer     prometheus.Registerer
}

// NewMetrics creates a new Metrics instance registered with the
// default registerer.
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

	m.decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Total number of authorization decisions",
		},
		[]string{"check", "result", "code"},
	)

	m.decisionsTotal = registerOrReuse(m.registerer, m.decisionsTotal).(*prometheus.CounterVec)

	return m
}

// RecordDecision records the outcome of a single authorization check.
// The code label is empty for allowed decisions.
func (m *Metrics) RecordDecision(check, result, code string) {
	m.decisionsTotal.WithLabelValues(check, result, code).Inc()
}
