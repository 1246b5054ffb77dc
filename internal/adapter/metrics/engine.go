package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saucecodee/praise/internal/domain"
)

// EngineMetrics holds Prometheus metrics for period transitions and scoring.
// It satisfies app.Metrics.
type EngineMetrics struct {
	PeriodTransitions       *prometheus.CounterVec
	QuantificationsTotal    *prometheus.CounterVec
	AssignmentDurationHisto prometheus.Histogram
}

// NewEngineMetrics creates and registers engine metrics on the given registry.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		PeriodTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "period",
			Name:      "transitions_total",
			Help:      "Total number of period transitions, by target status and result.",
		}, []string{"target", "result"}),
		QuantificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quantifications_submitted_total",
			Help:      "Total number of accepted quantification submissions, by outcome.",
		}, []string{"outcome"}),
		AssignmentDurationHisto: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "period",
			Name:      "assignment_duration_seconds",
			Help:      "Duration of quantifier pool assignment in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}

	reg.MustRegister(m.PeriodTransitions, m.QuantificationsTotal, m.AssignmentDurationHisto)
	return m
}

func (m *EngineMetrics) PeriodTransition(target domain.PeriodStatus, result string) {
	m.PeriodTransitions.WithLabelValues(string(target), result).Inc()
}

func (m *EngineMetrics) QuantificationSubmitted(kind domain.OutcomeKind) {
	m.QuantificationsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *EngineMetrics) AssignmentDuration(d time.Duration) {
	m.AssignmentDurationHisto.Observe(d.Seconds())
}
