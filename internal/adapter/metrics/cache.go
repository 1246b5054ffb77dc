package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for the settings cache.
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
}

// NewCacheMetrics creates and registers settings cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings_cache",
			Name:      "hits_total",
			Help:      "Total number of settings cache hits, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings_cache",
			Name:      "misses_total",
			Help:      "Total number of settings cache misses, by layer.",
		}, []string{"layer"}),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings_cache",
			Name:      "invalidations_total",
			Help:      "Total number of settings cache invalidations, by origin (local or remote).",
		}, []string{"origin"}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Invalidations)
	return m
}
