// Package catalogcache keeps the desk's copy of the item catalog in Redis.
package catalogcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
)

// Key holds the JSON-encoded item list.
const Key = "desk:catalog:items"

var errMiss = errors.New("cache miss")

// ItemLister is the source of truth behind the cache.
type ItemLister interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
}

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache serves ListItems from Redis and falls back to the source on a miss or
// on any Redis failure.
type Cache struct {
	source ItemLister
	store  store
	ttl    time.Duration
	logger *zap.Logger
}

// New returns a Cache in front of source. A nil client disables caching.
func New(client *redis.Client, source ItemLister, ttl time.Duration, logger *zap.Logger) *Cache {
	var s store
	if client != nil {
		s = redisStore{client: client}
	}
	return newCache(s, source, ttl, logger)
}

func newCache(s store, source ItemLister, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{source: source, store: s, ttl: ttl, logger: logging.OrNop(logger).Named("catalog_cache")}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *Cache) ListItems(ctx context.Context) ([]domain.Item, error) {
	if c.store == nil {
		return c.source.ListItems(ctx)
	}

	raw, err := c.store.Get(ctx, Key)
	switch {
	case err == nil:
		var items []domain.Item
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
		c.logger.Warn("discarding undecodable catalog entry")
	case errors.Is(err, errMiss):
	default:
		c.logger.Warn("cache read failed", zap.Error(err))
	}

	items, err := c.source.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(items); err == nil {
		if err := c.store.Set(ctx, Key, raw, c.ttl); err != nil {
			c.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

// Invalidate drops the cached catalog so the next read goes to the source.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Del(ctx, Key); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Error(err))
	}
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, errMiss
	}
	return b, err
}

func (s redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s redisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
