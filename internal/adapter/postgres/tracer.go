package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saucecodee/praise/internal/adapter/metrics"
)

// MetricsTracer implements pgx.QueryTracer to record query latency and errors.
type MetricsTracer struct {
	m *metrics.DBMetrics
}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

func NewMetricsTracer(m *metrics.DBMetrics) *MetricsTracer {
	return &MetricsTracer{m: m}
}

type queryContextKey struct{}

type queryContext struct {
	startTime time.Time
	queryName string
}

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryContext{
		startTime: time.Now(),
		queryName: extractQueryName(data.SQL),
	})
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qctx, ok := ctx.Value(queryContextKey{}).(queryContext)
	if !ok {
		return
	}

	t.m.QueryDuration.WithLabelValues(qctx.queryName).Observe(time.Since(qctx.startTime).Seconds())
	if data.Err != nil {
		t.m.ErrorsTotal.WithLabelValues(qctx.queryName).Inc()
	}
}

// extractQueryName reduces a statement to its leading verb to keep label
// cardinality low.
func extractQueryName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToUpper(fields[0])
	if len(verb) > 20 {
		verb = verb[:20]
	}
	return verb
}
