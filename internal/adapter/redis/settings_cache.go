package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/saucecodee/praise/internal/adapter/metrics"
	"github.com/saucecodee/praise/internal/domain"
)

const settingsCacheTTL = 1 * time.Hour

const (
	layerMemory   = "memory"
	layerRedis    = "redis"
	layerPostgres = "postgres"
)

// SettingsCache is a read-through setting source: in-memory L1, Redis L2 and
// the repository as source of truth. Writers call InvalidateSetting, which
// clears both layers and tells the other instances to drop their L1 entry.
type SettingsCache struct {
	rdb      goredis.Cmdable
	settings domain.SettingRepository
	mem      *memoryCache
	metrics  *metrics.CacheMetrics
	group    singleflight.Group
}

var (
	_ domain.SettingSource           = (*SettingsCache)(nil)
	_ domain.SettingCacheInvalidator = (*SettingsCache)(nil)
)

func NewSettingsCache(rdb goredis.Cmdable, settings domain.SettingRepository, clock clockwork.Clock, memCacheTTL time.Duration, m *metrics.CacheMetrics) *SettingsCache {
	return &SettingsCache{
		rdb:      rdb,
		settings: settings,
		mem:      newMemoryCache(clock, memCacheTTL),
		metrics:  m,
	}
}

// StartEvictionTimer periodically evicts expired in-memory entries.
// Returns a stop function that should be deferred.
func (c *SettingsCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := c.mem.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired settings cache entries", "count", evicted, "remaining", c.mem.size())
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

func (c *SettingsCache) Get(ctx context.Context, key string, periodID uuid.NullUUID) (*domain.Setting, error) {
	ck := settingCacheKey(key, periodID)

	// Layer 1: in-memory, including remembered misses
	if entry, ok := c.mem.get(ck); ok {
		c.hit(layerMemory)
		if entry == nil {
			return nil, domain.ErrSettingNotFound
		}
		return copySetting(entry), nil
	}
	c.miss(layerMemory)

	v, err, _ := c.group.Do(ck, func() (any, error) {
		// Layer 2: Redis
		if s, ok := c.getCached(ctx, ck); ok {
			c.hit(layerRedis)
			c.mem.set(ck, s)
			return s, nil
		}
		c.miss(layerRedis)

		// Layer 3: PostgreSQL
		s, err := c.settings.Get(ctx, key, periodID)
		if errors.Is(err, domain.ErrSettingNotFound) {
			c.miss(layerPostgres)
			c.mem.set(ck, nil)
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("setting lookup failed: %w", err)
		}
		c.hit(layerPostgres)
		c.mem.set(ck, s)
		c.writeCache(ctx, ck, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return copySetting(v.(*domain.Setting)), nil
}

// InvalidateSetting drops the key from every layer and notifies other instances.
func (c *SettingsCache) InvalidateSetting(ctx context.Context, key string, periodID uuid.NullUUID) error {
	ck := settingCacheKey(key, periodID)
	c.invalidateLocal(ck, "local")

	if err := c.rdb.Del(ctx, ck).Err(); err != nil {
		return fmt.Errorf("failed to invalidate setting cache: %w", err)
	}
	if err := c.rdb.Publish(ctx, settingsInvalidationChannel, ck).Err(); err != nil {
		return fmt.Errorf("failed to publish setting invalidation: %w", err)
	}
	return nil
}

func (c *SettingsCache) invalidateLocal(cacheKey, origin string) {
	c.mem.invalidate(cacheKey)
	if c.metrics != nil {
		c.metrics.Invalidations.WithLabelValues(origin).Inc()
	}
}

func (c *SettingsCache) hit(layer string) {
	if c.metrics != nil {
		c.metrics.Hits.WithLabelValues(layer).Inc()
	}
}

func (c *SettingsCache) miss(layer string) {
	if c.metrics != nil {
		c.metrics.Misses.WithLabelValues(layer).Inc()
	}
}

func (c *SettingsCache) writeCache(ctx context.Context, cacheKey string, s *domain.Setting) {
	encoded, err := json.Marshal(toRecord(s))
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal setting for Redis cache", "cache_key", cacheKey, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey, encoded, settingsCacheTTL).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate Redis setting cache", "cache_key", cacheKey, "error", err)
	}
}

func (c *SettingsCache) getCached(ctx context.Context, cacheKey string) (*domain.Setting, bool) {
	data, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis setting cache GET failed", "cache_key", cacheKey, "error", err)
		}
		return nil, false
	}

	var rec settingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached setting", "cache_key", cacheKey, "error", err)
		return nil, false
	}
	return rec.toDomain(), true
}

// settingCacheKey scopes the cache key by period; "global" marks the default scope.
func settingCacheKey(key string, periodID uuid.NullUUID) string {
	scope := "global"
	if periodID.Valid {
		scope = periodID.UUID.String()
	}
	return "setting_cache:" + scope + ":" + key
}

type settingRecord struct {
	ID          uuid.UUID          `json:"id"`
	Key         string             `json:"key"`
	Value       string             `json:"value"`
	Type        domain.SettingType `json:"type"`
	Label       string             `json:"label"`
	Description string             `json:"description"`
	PeriodID    uuid.NullUUID      `json:"period_id"`
}

func toRecord(s *domain.Setting) settingRecord {
	return settingRecord{
		ID:          s.ID,
		Key:         s.Key,
		Value:       s.Value,
		Type:        s.Type,
		Label:       s.Label,
		Description: s.Description,
		PeriodID:    s.PeriodID,
	}
}

func (r settingRecord) toDomain() *domain.Setting {
	return &domain.Setting{
		ID:          r.ID,
		Key:         r.Key,
		Value:       r.Value,
		Type:        r.Type,
		Label:       r.Label,
		Description: r.Description,
		PeriodID:    r.PeriodID,
	}
}

func copySetting(s *domain.Setting) *domain.Setting {
	cp := *s
	return &cp
}

// memoryCache is an in-memory L1 cache with TTL-based expiry. A nil setting
// records a confirmed miss.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type memoryCacheEntry struct {
	setting   *domain.Setting
	expiresAt time.Time
}

func newMemoryCache(clock clockwork.Clock, ttl time.Duration) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *memoryCache) get(cacheKey string) (*domain.Setting, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.setting, true
}

func (c *memoryCache) set(cacheKey string, s *domain.Setting) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey] = memoryCacheEntry{
		setting:   s,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

func (c *memoryCache) invalidate(cacheKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey)
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
