package cache

import (
	"context"
	"time"
)

// Cache is the byte-value cache behind wallet views and the display
// render memo. All values carry a TTL; implementations must be safe for
// concurrent use. Services treat the cache as optional: a miss or a
// failed write never changes behavior, only cost.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// CacheError is a sentinel error type for cache outcomes.
type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss indicates the key was not found in the cache.
const ErrCacheMiss CacheError = "cache miss"
