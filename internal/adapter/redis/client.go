package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/saucecodee/praise/internal/adapter/metrics"
	"github.com/saucecodee/praise/internal/platform/retry"
)

// NewClient parses redisURL, installs the circuit breaker and metrics hooks and
// waits for the server to answer PING.
func NewClient(ctx context.Context, redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	rdb.AddHook(NewCircuitBreakerHook(m))
	if m != nil {
		rdb.AddHook(NewMetricsHook(m))
	}

	policy := retry.StartupPolicy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Redis not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	}
	err = retry.DoVoid(ctx, policy, retry.Always, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}
