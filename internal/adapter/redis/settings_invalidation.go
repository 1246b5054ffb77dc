package redis

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

const settingsInvalidationChannel = "settings:invalidate"

// SettingsInvalidationSubscriber drops L1 entries when another instance
// changes a setting. The publisher already deleted the Redis entry.
type SettingsInvalidationSubscriber struct {
	rdb   *goredis.Client
	cache *SettingsCache
}

func NewSettingsInvalidationSubscriber(rdb *goredis.Client, cache *SettingsCache) *SettingsInvalidationSubscriber {
	return &SettingsInvalidationSubscriber{rdb: rdb, cache: cache}
}

// Start blocks until ctx is cancelled or the subscription channel closes.
func (s *SettingsInvalidationSubscriber) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, settingsInvalidationChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return
			}
			s.handleInvalidation(ctx, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SettingsInvalidationSubscriber) handleInvalidation(ctx context.Context, payload string) {
	if payload == "" {
		slog.WarnContext(ctx, "Empty settings invalidation message")
		return
	}
	s.cache.invalidateLocal(payload, "remote")
	slog.DebugContext(ctx, "Setting cache invalidated via pub/sub", "cache_key", payload)
}
