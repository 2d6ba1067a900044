package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"appfeed/internal/models"
	"appfeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

const authorKeyPrefix = "author:%s"

// DefaultAuthorTTL bounds how stale an author snapshot may be after a profile
// change that bypassed invalidation.
const DefaultAuthorTTL = 5 * time.Minute

// AuthorKey is the cache key for a user's display snapshot.
func AuthorKey(userID string) string {
	return fmt.Sprintf(authorKeyPrefix, userID)
}

// AuthorCache stores {username, profileImage} per user id. A nil client turns
// every call into a miss.
type AuthorCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAuthorCache returns an author cache over rdb.
func NewAuthorCache(rdb *redis.Client, ttl time.Duration) *AuthorCache {
	if ttl <= 0 {
		ttl = DefaultAuthorTTL
	}
	return &AuthorCache{rdb: rdb, ttl: ttl}
}

// GetMany returns cached snapshots for ids and the ids it could not serve.
// Redis failures are reported as misses so reads fall through to the database.
func (c *AuthorCache) GetMany(ctx context.Context, ids []string) (map[string]models.Author, []string) {
	found := make(map[string]models.Author, len(ids))
	if c == nil || c.rdb == nil || len(ids) == 0 {
		return found, ids
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = AuthorKey(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		observability.AuthorCacheLookups.WithLabelValues("error").Add(float64(len(ids)))
		return found, ids
	}

	var missing []string
	for i, v := range vals {
		s, ok := v.(string)
		var a models.Author
		if !ok || json.Unmarshal([]byte(s), &a) != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = a
	}
	observability.AuthorCacheLookups.WithLabelValues("hit").Add(float64(len(found)))
	observability.AuthorCacheLookups.WithLabelValues("miss").Add(float64(len(missing)))
	return found, missing
}

// SetMany stores snapshots in one pipeline. Failures are ignored.
func (c *AuthorCache) SetMany(ctx context.Context, authors map[string]models.Author) {
	if c == nil || c.rdb == nil || len(authors) == 0 {
		return
	}
	pipe := c.rdb.Pipeline()
	for id, a := range authors {
		b, err := json.Marshal(a)
		if err != nil {
			continue
		}
		pipe.Set(ctx, AuthorKey(id), b, c.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

// Forget drops a user's snapshot after a profile change.
func (c *AuthorCache) Forget(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}
	return Invalidate(ctx, c.rdb, AuthorKey(userID))
}
