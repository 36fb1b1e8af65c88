package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cache is the subset of the redis client used for record caching.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// recordCache holds the stored BSON document, not a decoded view of it, so
// every Collection over the same MongoDB collection can share one entry.
// It never fails the caller: any cache fault is logged and the request
// falls through to MongoDB.
type recordCache struct {
	client Cache
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

func (c *recordCache) key(id primitive.ObjectID) string {
	return c.prefix + ":" + id.Hex()
}

func (c *recordCache) get(ctx context.Context, id primitive.ObjectID) (bson.Raw, bool) {
	val, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", slog.String("key", c.key(id)), slog.Any("error", err))
		return nil, false
	}
	raw := bson.Raw(val)
	if err := raw.Validate(); err != nil {
		c.log.Warn("cache entry undecodable", slog.String("key", c.key(id)), slog.Any("error", err))
		return nil, false
	}
	return raw, true
}

func (c *recordCache) set(ctx context.Context, id primitive.ObjectID, raw bson.Raw) {
	if err := c.client.Set(ctx, c.key(id), []byte(raw), c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", slog.String("key", c.key(id)), slog.Any("error", err))
	}
}

func (c *recordCache) del(ctx context.Context, id primitive.ObjectID) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.Warn("cache invalidation failed", slog.String("key", c.key(id)), slog.Any("error", err))
	}
}
