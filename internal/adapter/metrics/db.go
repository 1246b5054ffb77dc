package metrics

import "github.com/prometheus/client_golang/prometheus"

// DBMetrics holds Prometheus metrics for PostgreSQL queries.
type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
	ErrorsTotal   *prometheus.CounterVec
}

// NewDBMetrics creates and registers database metrics on the given registry.
func NewDBMetrics(reg prometheus.Registerer) *DBMetrics {
	m := &DBMetrics{
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds, by statement verb.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"query"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Total failed database queries, by statement verb.",
		}, []string{"query"}),
	}

	reg.MustRegister(m.QueryDuration, m.ErrorsTotal)
	return m
}
