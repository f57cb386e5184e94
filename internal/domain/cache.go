package domain

import "time"

// Store is the cache backend port. Values are opaque bytes keyed by content
// hash; a ttl of zero means no expiry. Implementations must treat internal
// failures as cache misses rather than surfacing them to analysis callers.
type Store interface {
	Get(ctx Context, key string) ([]byte, bool, error)
	Set(ctx Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx Context, key string) error
}
