package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/folio/internal/cache"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/report/domain"
)

const defaultViewTTL = 5 * time.Minute

type memoryViewCache struct {
	items cache.Cache[string, domain.View]
	ttl   time.Duration
}

func NewMemoryViewCache(ttl time.Duration) domain.ViewCache {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &memoryViewCache{items: cache.NewTTLCache[string, domain.View](), ttl: ttl}
}

func (c *memoryViewCache) Get(_ context.Context, key string) (domain.View, bool, error) {
	view, ok := c.items.Get(key)
	return view, ok, nil
}

func (c *memoryViewCache) Set(_ context.Context, key string, view domain.View) error {
	c.items.Set(key, view, c.ttl)
	return nil
}

type redisViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisViewCache(client *redis.Client, ttl time.Duration) domain.ViewCache {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &redisViewCache{client: client, ttl: ttl}
}

func (c *redisViewCache) Get(ctx context.Context, key string) (domain.View, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.View{}, false, nil
	}
	if err != nil {
		return domain.View{}, false, err
	}
	var view domain.View
	if err := json.Unmarshal(raw, &view); err != nil {
		return domain.View{}, false, err
	}
	return view, true, nil
}

func (c *redisViewCache) Set(ctx context.Context, key string, view domain.View) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// ProvideViewCache prefers redis so every replica shares the last good view.
func ProvideViewCache(client *redis.Client, cfg config.Config) domain.ViewCache {
	ttl := time.Duration(cfg.ReportCacheTTL) * time.Second
	if client == nil {
		return NewMemoryViewCache(ttl)
	}
	return NewRedisViewCache(client, ttl)
}
