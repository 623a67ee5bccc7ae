package referencedata

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"membership/internal/registration/models"
	"membership/internal/registration/ports"
)

const (
	cacheKeyPrefix  = "reference:"
	DefaultCacheTTL = time.Hour
)

// Cache is a read-through Redis cache in front of another ReferenceData.
// Concurrent misses for the same list share one upstream call. Redis
// failures degrade to the upstream; they never fail a lookup.
type Cache struct {
	next   ports.ReferenceData
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func NewCache(next ports.ReferenceData, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(level models.Level, parentCode string) string {
	return cacheKeyPrefix + string(level) + ":" + parentCode
}

func (c *Cache) List(ctx context.Context, level models.Level, parentCode string) ([]models.ReferenceEntry, error) {
	key := cacheKey(level, parentCode)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var list []models.ReferenceEntry
		if jsonErr := json.Unmarshal(raw, &list); jsonErr == nil {
			return list, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt reference cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "reference cache read failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		list, err := c.next.List(ctx, level, parentCode)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			c.store(ctx, key, list)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ReferenceEntry), nil
}

func (c *Cache) store(ctx context.Context, key string, list []models.ReferenceEntry) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "reference cache write failed", "key", key, "error", err)
	}
}
