package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fetcher retrieves raw bytes keyed by bucket and object key.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// CachedFetcher adds a redis read-through cache in front of another Fetcher.
// Artifact objects are immutable per version, so cached bytes never go stale;
// the TTL only bounds memory. Redis failures are tolerated: the fetch falls
// through to the backing store.
type CachedFetcher struct {
	cache  *redis.Client
	next   Fetcher
	expiry time.Duration
}

// NewCachedFetcher connects to redis at addr and wraps next. A non-positive
// expiry defaults to 24h.
func NewCachedFetcher(addr string, next Fetcher, expiry time.Duration) *CachedFetcher {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &CachedFetcher{
		cache:  redis.NewClient(&redis.Options{Addr: addr}),
		next:   next,
		expiry: expiry,
	}
}

func (c *CachedFetcher) cacheKey(bucket, key string) string {
	return "artifact:" + bucket + "/" + key
}

// Fetch returns cached bytes when present, otherwise fetches from the backing
// store and populates the cache.
func (c *CachedFetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	ck := c.cacheKey(bucket, key)

	data, err := c.cache.Get(ctx, ck).Bytes()
	if err == nil && len(data) > 0 {
		return data, nil
	}
	if err != nil && err != redis.Nil {
		log.Printf("[WARN] redis get for key %s failed, falling through: %v", ck, err)
	}

	data, err = c.next.Fetch(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	if setErr := c.cache.Set(ctx, ck, data, c.expiry).Err(); setErr != nil {
		log.Printf("[WARN] redis set for key %s failed: %v", ck, setErr)
	}
	return data, nil
}

// Close releases the redis connection.
func (c *CachedFetcher) Close() error {
	if err := c.cache.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}
