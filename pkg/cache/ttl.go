package cache

import (
	"context"
	"time"
)

// WithTTL returns a cache that stores every entry with ttl, whatever the
// caller asks for. A non-positive ttl returns c unchanged.
func WithTTL(c Cache, ttl time.Duration) Cache {
	if ttl <= 0 {
		return c
	}
	return fixedTTL{Cache: c, ttl: ttl}
}

type fixedTTL struct {
	Cache
	ttl time.Duration
}

func (c fixedTTL) Set(ctx context.Context, key string, data []byte, _ time.Duration) error {
	return c.Cache.Set(ctx, key, data, c.ttl)
}
