package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetRoundTrip(t *testing.T) {
	cache := NewMemoryCache(10, 1024, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("payload"), time.Minute))

	value, found, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("payload"), value)

	// Returned slice is a copy.
	value[0] = 'X'
	again, _, _ := cache.Get(ctx, "a")
	assert.Equal(t, []byte("payload"), again)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	cache := NewMemoryCache(10, 1024, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, found, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0, stats.Entries)
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(2, 1024, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), time.Minute))

	// Touch a so b becomes the eviction candidate.
	_, found, _ := cache.Get(ctx, "a")
	require.True(t, found)

	require.NoError(t, cache.Set(ctx, "c", []byte("3"), time.Minute))

	_, found, _ = cache.Get(ctx, "a")
	assert.True(t, found)
	_, found, _ = cache.Get(ctx, "b")
	assert.False(t, found)
	_, found, _ = cache.Get(ctx, "c")
	assert.True(t, found)

	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestMemoryCache_OversizedValueSkipped(t *testing.T) {
	cache := NewMemoryCache(10, 8, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "big", []byte("way too large for this cache"), time.Minute))

	_, found, _ := cache.Get(ctx, "big")
	assert.False(t, found)
}

func TestMemoryCache_ClearPatterns(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		pattern   string
		remaining []string
	}{
		{name: "prefix wildcard", pattern: "user-1:*", remaining: []string{"user-2:relationships"}},
		{name: "exact", pattern: "user-1:relationships", remaining: []string{"user-1:events", "user-2:relationships"}},
		{name: "everything", pattern: "*", remaining: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryCache(10, 1024, nil)
			for _, key := range []string{"user-1:relationships", "user-1:events", "user-2:relationships"} {
				require.NoError(t, cache.Set(ctx, key, []byte("v"), time.Minute))
			}

			require.NoError(t, cache.Clear(ctx, tt.pattern))

			for _, key := range tt.remaining {
				_, found, _ := cache.Get(ctx, key)
				assert.True(t, found, key)
			}
			assert.Equal(t, len(tt.remaining), cache.Stats().Entries)
		})
	}
}
