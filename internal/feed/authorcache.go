package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/murmurapp/backend/internal/cache"
	"github.com/murmurapp/backend/internal/logger"
	"github.com/murmurapp/backend/internal/metrics"
	"github.com/murmurapp/backend/internal/models"
	"go.uber.org/zap"
)

// AuthorCache short-circuits per-item author lookups during enrichment.
// Correctness never depends on it: a miss just means a store round-trip.
type AuthorCache interface {
	Get(ctx context.Context, id string) (*models.User, bool)
	Set(ctx context.Context, u *models.User)
}

const (
	authorKeyPrefix = "feed:author:"
	authorCacheTTL  = 5 * time.Minute
	authorCacheName = "feed_authors"
)

// RedisAuthorCache caches author records in redis with a short TTL, so a
// page full of posts by the same few authors costs a handful of lookups.
type RedisAuthorCache struct {
	client *cache.RedisClient
}

// NewRedisAuthorCache wraps the shared redis client.
func NewRedisAuthorCache(client *cache.RedisClient) *RedisAuthorCache {
	return &RedisAuthorCache{client: client}
}

func (c *RedisAuthorCache) Get(ctx context.Context, id string) (*models.User, bool) {
	val, err := c.client.Get(ctx, authorKeyPrefix+id)
	if err != nil {
		if !cache.IsNil(err) {
			logger.Log.Debug("author cache read failed", zap.Error(err))
		}
		metrics.RecordCacheMiss(authorCacheName)
		return nil, false
	}

	var u models.User
	if err := json.Unmarshal([]byte(val), &u); err != nil {
		metrics.RecordCacheMiss(authorCacheName)
		return nil, false
	}
	metrics.RecordCacheHit(authorCacheName)
	return &u, true
}

func (c *RedisAuthorCache) Set(ctx context.Context, u *models.User) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.client.SetEx(ctx, authorKeyPrefix+u.ID, string(data), authorCacheTTL); err != nil {
		logger.Log.Debug("author cache write failed", zap.Error(err))
	}
}
