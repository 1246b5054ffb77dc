package metrics

import "github.com/prometheus/client_golang/prometheus"

// RedisMetrics holds Prometheus metrics for Redis commands and the circuit breaker
// guarding them.
type RedisMetrics struct {
	OpsTotal            *prometheus.CounterVec
	OpDuration          *prometheus.HistogramVec
	ConnectionErrors    prometheus.Counter
	CircuitStateChanges *prometheus.CounterVec
	CircuitState        prometheus.Gauge
}

// NewRedisMetrics creates and registers Redis metrics on the given registry.
func NewRedisMetrics(reg prometheus.Registerer) *RedisMetrics {
	m := &RedisMetrics{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Total Redis operations by operation and status.",
		}, []string{"operation", "status"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Redis operation duration in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		ConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Total Redis connection errors.",
		}),
		CircuitStateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Circuit breaker state transitions by new state.",
		}, []string{"state"}),
		CircuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.OpsTotal, m.OpDuration, m.ConnectionErrors, m.CircuitStateChanges, m.CircuitState)
	return m
}
