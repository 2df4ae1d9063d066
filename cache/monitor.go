package cache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Monitor records cache hits and misses.
type Monitor interface {
	RecordHit(key string)
	RecordMiss(key string)
	RecordError(op string)
}

// PrometheusMonitor counts lookups per key domain. Only the first key segment is used as a label.
type PrometheusMonitor struct {
	lookups *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

var _ Monitor = (*PrometheusMonitor)(nil)

// NewPrometheusMonitor creates the counters and registers them with reg.
func NewPrometheusMonitor(reg prometheus.Registerer, namespace string) (*PrometheusMonitor, error) {
	m := &PrometheusMonitor{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key domain and result.",
		}, []string{"domain", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache store failures by operation.",
		}, []string{"op"}),
	}

	var err error
	if m.lookups, err = register(reg, m.lookups); err != nil {
		return nil, err
	}

	if m.errors, err = register(reg, m.errors); err != nil {
		return nil, err
	}

	return m, nil
}

// register reuses an identical collector that is already registered.
func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}

	return nil, err
}

func (m *PrometheusMonitor) RecordHit(key string) {
	m.lookups.WithLabelValues(Domain(key), "hit").Inc()
}

func (m *PrometheusMonitor) RecordMiss(key string) {
	m.lookups.WithLabelValues(Domain(key), "miss").Inc()
}

func (m *PrometheusMonitor) RecordError(op string) { m.errors.WithLabelValues(op).Inc() }
