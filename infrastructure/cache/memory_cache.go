// Package cache implements the bounded in-memory cache behind the analytics
// layer: LRU eviction, per-entry TTL, wildcard invalidation.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryCache is a thread-safe LRU+TTL byte cache for single-instance
// deployments. Capacity is fixed at construction; eviction removes the least
// recently used entry first.
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	lru         *list.List
	maxEntries  int
	maxBytes    int64
	currentSize int64

	hits      int64
	misses    int64
	evictions int64

	logger *zap.Logger
}

type entry struct {
	key     string
	value   []byte
	size    int64
	expiry  time.Time
	element *list.Element
}

// NewMemoryCache creates a cache bounded by entry count and total byte size.
func NewMemoryCache(maxEntries int, maxBytes int64, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		entries:    make(map[string]*entry),
		lru:        list.New(),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Get returns a copy of the cached value. Expired entries are removed on
// read and count as misses.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if time.Now().After(e.expiry) {
		c.remove(e)
		c.misses++
		return nil, false, nil
	}

	c.lru.MoveToFront(e.element)
	c.hits++

	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

// Set stores a value with the given TTL, evicting from the LRU tail until the
// entry fits. Values larger than the whole cache are skipped silently.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(key) + len(value))
	if size > c.maxBytes {
		c.logger.Warn("value exceeds cache capacity, not cached",
			zap.String("key", key),
			zap.Int64("size", size),
		)
		return nil
	}

	if existing, ok := c.entries[key]; ok {
		c.remove(existing)
	}

	for (c.currentSize+size > c.maxBytes || len(c.entries) >= c.maxEntries) && c.lru.Len() > 0 {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest.Value.(*entry))
		c.evictions++
	}

	e := &entry{
		key:    key,
		value:  append([]byte(nil), value...),
		size:   size,
		expiry: time.Now().Add(ttl),
	}
	e.element = c.lru.PushFront(e)
	c.entries[key] = e
	c.currentSize += size
	return nil
}

// Delete removes one key. Missing keys are not an error.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.remove(e)
	}
	return nil
}

// Clear removes every entry whose key matches the pattern. Patterns support a
// single leading or trailing * wildcard; anything else is an exact match.
func (c *MemoryCache) Clear(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := make([]*entry, 0)
	for key, e := range c.entries {
		if matchPattern(key, pattern) {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		c.remove(e)
	}

	c.logger.Debug("cleared cache entries",
		zap.String("pattern", pattern),
		zap.Int("count", len(matched)),
	)
	return nil
}

// remove unlinks an entry. Callers hold the lock.
func (c *MemoryCache) remove(e *entry) {
	if e.element != nil {
		c.lru.Remove(e.element)
	}
	delete(c.entries, e.key)
	c.currentSize -= e.size
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Bytes     int64
	HitRate   float64
}

// Stats returns hit/miss/eviction counters for the health endpoint.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hitRate := 0.0
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.entries),
		Bytes:     c.currentSize,
		HitRate:   hitRate,
	}
}

// StartCleanup launches a background sweep that drops expired entries so they
// stop holding memory between reads.
func (c *MemoryCache) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			c.sweepExpired()
		}
	}()
}

func (c *MemoryCache) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expired := make([]*entry, 0)
	for _, e := range c.entries {
		if now.After(e.expiry) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.remove(e)
	}
}

func matchPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if len(pattern) > 0 && pattern[0] == '*' {
		suffix := pattern[1:]
		return len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix
	}
	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	}
	return key == pattern
}
