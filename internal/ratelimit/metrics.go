package ratelimit

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

// Metrics holds Prometheus metrics for rate limiting.
type Metrics struct {
	checksTotal *prometheus.CounterVec
	registerer  prometheus.Registerer
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

	m.checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "checks_total",
			Help:      "Total number of rate limit admission checks",
		},
		[]string{"scope", "result"},
	)

	m.checksTotal = registerOrReuse(m.registerer, m.checksTotal).(*prometheus.CounterVec)

	return m
}

// RecordCheck records a single admission decision.
func (m *Metrics) RecordCheck(scope, result string) {
	m.checksTotal.WithLabelValues(scope, result).Inc()
}
