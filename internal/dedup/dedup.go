// Package dedup keeps a Redis-backed skip list of already-scraped ASINs so a
// restarted batch run does not revisit products within the TTL window.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pdpscraper:seen:asin:"

type Deduplicator struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduplicator{
		rdb: rdb,
		ttl: ttl,
	}
}

// Seen marks the ASIN and reports whether it was already marked. A nil
// receiver or client is a no-op, so callers need no Redis-configured check.
func (d *Deduplicator) Seen(ctx context.Context, asin string) (bool, error) {
	if d == nil || d.rdb == nil || asin == "" {
		return false, nil
	}
	ok, err := d.rdb.SetNX(ctx, keyPrefix+asin, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup setnx: %w", err)
	}
	return !ok, nil
}

// Forget clears the mark, letting the ASIN be scraped again immediately.
func (d *Deduplicator) Forget(ctx context.Context, asin string) error {
	if d == nil || d.rdb == nil || asin == "" {
		return nil
	}
	if err := d.rdb.Del(ctx, keyPrefix+asin).Err(); err != nil {
		return fmt.Errorf("dedup del: %w", err)
	}
	return nil
}
