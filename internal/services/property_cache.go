package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultPropertyTTL is how long a cached property catalog lives in redis.
const DefaultPropertyTTL = 10 * time.Minute

// CachedProperties keeps property catalogs in redis. Concurrent misses for
// the same item type share one load. Cache failures fall through to the
// underlying catalog.
type CachedProperties struct {
	next  callcard.PropertyCatalog
	rdb   redis.UniversalClient
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group
}

func NewCachedProperties(next callcard.PropertyCatalog, rdb redis.UniversalClient, ttl time.Duration, log *zap.Logger) *CachedProperties {
	if ttl <= 0 {
		ttl = DefaultPropertyTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedProperties{next: next, rdb: rdb, ttl: ttl, log: log}
}

func propertyCacheKey(itemTypeID int) string {
	return "callcard:properties:" + strconv.Itoa(itemTypeID)
}

// PropertiesFor returns the cached catalog or loads and caches it.
func (c *CachedProperties) PropertiesFor(ctx context.Context, itemTypeID int) (callcard.Properties, error) {
	key := propertyCacheKey(itemTypeID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var props callcard.Properties
		if err := json.Unmarshal(raw, &props); err == nil {
			return props, nil
		}
		c.log.Warn("discarding malformed cached properties", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("property cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		props, err := c.next.PropertiesFor(ctx, itemTypeID)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(props); err == nil {
			if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.log.Warn("property cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return props, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	return v.(callcard.Properties), nil
}

// Invalidate drops the cached catalog of an item type.
func (c *CachedProperties) Invalidate(ctx context.Context, itemTypeID int) error {
	return c.rdb.Del(ctx, propertyCacheKey(itemTypeID)).Err()
}
