package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Invalidate deletes key, ignoring a nil client.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, key).Err()
}
