package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/pkg/observability"
)

// AnalyticsCache is the JSON layer over the byte cache used by the analytics
// services. Every cache failure is logged and treated as a miss or best-effort
// write; callers never see a cache error.
type AnalyticsCache struct {
	cache   ports.Cache
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewAnalyticsCache wraps a byte cache. Metrics may be nil.
func NewAnalyticsCache(cache ports.Cache, metrics *observability.Collector, logger *zap.Logger) *AnalyticsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsCache{cache: cache, metrics: metrics, logger: logger}
}

// Get reads and unmarshals a cached value into dest. Read errors and corrupt
// entries count as misses.
func (c *AnalyticsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		c.recordMiss()
		return false
	}
	if !found {
		c.recordMiss()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss",
			zap.String("key", key), zap.Error(err))
		c.recordMiss()
		return false
	}
	c.recordHit()
	return true
}

// Put marshals and stores a value with the given TTL, best effort.
func (c *AnalyticsCache) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed, skipping write",
			zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Warn("cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops one key, best effort.
func (c *AnalyticsCache) Invalidate(ctx context.Context, key string) {
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn("cache invalidation failed",
			zap.String("key", key), zap.Error(err))
	}
}

// InvalidateIf drops the key when the predicate holds for its current raw
// value. A missing key is left alone; a read failure invalidates to stay
// safe.
func (c *AnalyticsCache) InvalidateIf(ctx context.Context, key string, predicate func(raw []byte) bool) {
	raw, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.Invalidate(ctx, key)
		return
	}
	if !found {
		return
	}
	if predicate(raw) {
		c.Invalidate(ctx, key)
	}
}

// InvalidateUser drops every cached payload for one user.
func (c *AnalyticsCache) InvalidateUser(ctx context.Context, userID string) {
	if err := c.cache.Clear(ctx, userID+":*"); err != nil {
		c.logger.Warn("user cache invalidation failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *AnalyticsCache) recordHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *AnalyticsCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}
