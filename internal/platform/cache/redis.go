// Package cache opens the Redis connection behind the feed cache. Callers
// decide what a failed connection means; the API keeps serving without it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// New connects to the Redis server at addr. A client that cannot be pinged is
// closed before the error is returned.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(options(addr))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: redis at %s unreachable: %w", addr, err)
	}
	return client, nil
}

// options keeps feed cache calls short; a slow cache falls back to storage.
func options(addr string) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}
