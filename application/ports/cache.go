package ports

import (
	"context"
	"time"
)

// Cache is the byte-level cache the analytics layer builds on. Implementations
// must be safe for concurrent use; there is deliberately no lock against two
// regenerations of the same key, so last-write-wins is possible.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, pattern string) error
}
