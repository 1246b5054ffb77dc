package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/saucecodee/praise/internal/domain"
)

const periodLockTTL = 30 * time.Second

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PeriodLock serialises period transitions across instances with SET NX.
// The database status guard stays authoritative; the lock keeps two instances
// from running the same assignment in parallel.
type PeriodLock struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

var _ domain.PeriodLocker = (*PeriodLock)(nil)

func NewPeriodLock(rdb goredis.Cmdable) *PeriodLock {
	return &PeriodLock{rdb: rdb, ttl: periodLockTTL}
}

func (l *PeriodLock) Lock(ctx context.Context, periodID uuid.UUID) (func(), error) {
	key := periodLockKey(periodID)
	token := uuid.NewString()

	args := goredis.SetArgs{TTL: l.ttl, Mode: "NX"}
	_, err := l.rdb.SetArgs(ctx, key, token, args).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: transition already running for period %s", domain.ErrInvalidTransition, periodID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire period lock: %w", err)
	}

	release := func() {
		// Fresh context: the request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			slog.Warn("Failed to release period lock", "period_id", periodID, "error", err)
		}
	}
	return release, nil
}

func periodLockKey(periodID uuid.UUID) string {
	return "period_lock:" + periodID.String()
}
