package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	feedVersionKey = "blog:feed:version"
	feedKeyPrefix  = "blog:feed"
)

// FeedCache stores rendered feed listings. Every mutation invalidates it.
type FeedCache interface {
	Fetch(ctx context.Context, filter Filter, loader func(context.Context) ([]Post, error)) ([]Post, error)
	Invalidate(ctx context.Context) error
}

// RedisFeedCache versions feed keys in Redis so that a single increment retires
// every cached listing at once.
type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFeedCache instantiates the cache helper.
func NewRedisFeedCache(client *redis.Client, ttl time.Duration) *RedisFeedCache {
	return &RedisFeedCache{client: client, ttl: ttl}
}

func (c *RedisFeedCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, feedVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so that concurrent first readers agree on the initial version
		if err := c.client.SetNX(ctx, feedVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, feedVersionKey).Int64()
	}
	return ver, err
}

func (c *RedisFeedCache) key(ctx context.Context, filter Filter) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	parts := append([]string{feedKeyPrefix}, filter.cacheKey()...)
	return fmt.Sprintf("%s:%d", strings.Join(parts, ":"), ver), nil
}

// Fetch loads a cached listing or populates it using loader. The key is bound to
// the version read before loading, so a concurrent invalidation can never be
// overwritten by a stale fill.
func (c *RedisFeedCache) Fetch(ctx context.Context, filter Filter, loader func(context.Context) ([]Post, error)) ([]Post, error) {
	if loader == nil {
		return nil, errors.New("blog: feed loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.key(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var posts []Post
		if err := json.Unmarshal(payload, &posts); err != nil {
			return nil, err
		}
		return posts, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	posts, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Invalidate retires every cached listing by bumping the version.
func (c *RedisFeedCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, feedVersionKey).Err()
}

var _ FeedCache = (*RedisFeedCache)(nil)
