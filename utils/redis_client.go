package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/yatube/config"
)

// NewRedis returns a Redis client for the configured host, or nil when Redis
// is not configured so callers can fall back to in-process stores.
func NewRedis(cfg config.AppConfig) *redis.Client {
	if cfg.RedisHost == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		// keep the client: go-redis reconnects on its own once the server is up
		Sugar.Warnf("redis ping failed addr=%s err=%v", rc.Options().Addr, err)
	}
	return rc
}

// NewCacheStore picks Redis when available, memory otherwise.
func NewCacheStore(rc *redis.Client) CacheStore {
	if rc == nil {
		return NewMemoryStore()
	}
	return NewRedisStore(rc)
}
