package main

import (
	"context"
	"fmt"

	"github.com/linnemanlabs/go-core/log"

	uc "github.com/linnemanlabs/urgency/internal/cfg"
	"github.com/linnemanlabs/urgency/internal/postgres"
	"github.com/linnemanlabs/urgency/internal/urgency"
	"github.com/linnemanlabs/urgency/internal/urgency/memcache"
	"github.com/linnemanlabs/urgency/internal/urgency/pgcache"
	"github.com/linnemanlabs/urgency/internal/urgency/rediscache"
)

// openCache builds the configured result cache. The returned close func is
// never nil.
func openCache(ctx context.Context, appCfg *uc.Config, L log.Logger) (urgency.Cache, func(), error) {
	switch appCfg.CacheBackend {
	case uc.CacheRedis:
		rc, err := rediscache.New(ctx, appCfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		L.Info(ctx, "using redis result cache")
		return rc, func() { _ = rc.Close() }, nil

	case uc.CachePostgres:
		pool, err := postgres.NewPool(ctx, appCfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		pc, err := pgcache.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pgcache init: %w", err)
		}
		L.Info(ctx, "using postgres result cache")
		return pc, pool.Close, nil

	default:
		L.Info(ctx, "using in-memory result cache", "max_entries", appCfg.CacheMaxEntries)
		return memcache.New(appCfg.CacheMaxEntries), func() {}, nil
	}
}
