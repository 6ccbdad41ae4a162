package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Redis is a Store backed by a Redis-compatible server, selected when
// CACHE_REDIS_ADDR is configured. Values are stored as JSON; Get returns
// json.RawMessage, so callers that need to survive a tier switch should
// cache marshaled bytes rather than live structs. Transport errors degrade
// to cache misses: the cache must never block the operation it supports.
type Redis struct {
	rdb    *redis.Client
	flight singleflight.Group
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func NewRedisFromAddr(addr, password string, db int) *Redis {
	return NewRedis(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}))
}

func (r *Redis) Get(ctx context.Context, key string) (any, bool) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("redis cache get failed")
		}
		return nil, false
	}
	return json.RawMessage(data), true
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache marshal failed")
		return
	}
	if err := r.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache set failed")
	}
}

func (r *Redis) Del(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache del failed")
	}
}

func (r *Redis) Exists(ctx context.Context, key string) bool {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache exists failed")
		return false
	}
	return n > 0
}

func (r *Redis) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetch Fetcher) (any, error) {
	if v, ok := r.Get(ctx, key); ok {
		return v, nil
	}
	v, err, _ := r.flight.Do(key, func() (any, error) {
		if v, ok := r.Get(ctx, key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		r.Set(ctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
