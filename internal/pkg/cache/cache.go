package cache

import (
	"context"
	"time"
)

// Cache is a small read-through cache for computed snapshots such as
// eligibility results. A miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
