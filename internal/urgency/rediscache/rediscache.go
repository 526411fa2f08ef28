// Package rediscache stores urgency results in Redis so every replica of
// the service shares one cache.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linnemanlabs/urgency/internal/urgency"
)

const (
	// KeyPrefix namespaces every entry written by the cache.
	KeyPrefix = "urgency:cache:"

	scanBatch = 500
)

// Cache implements urgency.Cache on a Redis server. Entries never expire.
type Cache struct {
	rdb *redis.Client
}

// New parses url, connects, and verifies the server answers PING.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Cache{rdb: rdb}, nil
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

func entryKey(key string) string {
	return KeyPrefix + key
}

// Get returns the result stored under key. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string) (urgency.Result, bool, error) {
	data, err := c.rdb.Get(ctx, entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return urgency.Result{}, false, nil
	}
	if err != nil {
		return urgency.Result{}, false, fmt.Errorf("redis get: %w", err)
	}

	var r urgency.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return urgency.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return r, true, nil
}

// Put stores r under key with no expiry.
func (c *Cache) Put(ctx context.Context, key string, r urgency.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.rdb.Set(ctx, entryKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear deletes every key under KeyPrefix. Keys written by other
// applications on the same database are left alone.
func (c *Cache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
