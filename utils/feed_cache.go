package utils

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// IndexCachePrefix namespaces every rendered index feed page.
const IndexCachePrefix = "cache:index_page:"

// ErrCacheMiss is returned by a CacheStore when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheStore is the byte storage behind FeedCache. ttl is an eviction hint;
// freshness is decided by FeedCache using its own clock.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// cacheEntry is what FeedCache writes into the store.
type cacheEntry struct {
	StoredAt time.Time `json:"stored_at"`
	Body     []byte    `json:"body"`
}

// FeedCache keeps rendered feed pages for a bounded time.
type FeedCache struct {
	store  CacheStore
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewFeedCache builds a cache over store. A nil clock means time.Now.
func NewFeedCache(store CacheStore, ttl time.Duration, now func() time.Time) *FeedCache {
	if now == nil {
		now = time.Now
	}
	return &FeedCache{store: store, ttl: ttl, prefix: IndexCachePrefix, now: now}
}

// Key returns the full store key for a suffix such as "page=2".
func (c *FeedCache) Key(suffix string) string {
	return c.prefix + suffix
}

// GetOrCompute returns the stored bytes for key while they are younger than
// ttl; otherwise it calls compute and stores the result. Store failures are
// logged and degrade to computing on every call.
func (c *FeedCache) GetOrCompute(ctx context.Context, key string, compute func() ([]byte, error)) ([]byte, error) {
	now := c.now()
	if raw, err := c.store.Get(ctx, key); err == nil {
		var entry cacheEntry
		if err := json.Unmarshal(raw, &entry); err == nil && now.Sub(entry.StoredAt) < c.ttl {
			return entry.Body, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		Sugar.Warnf("feed cache get failed key=%s err=%v", key, err)
	}

	body, err := compute()
	if err != nil {
		return nil, err
	}

	if c.ttl <= 0 {
		return body, nil
	}
	raw, err := json.Marshal(cacheEntry{StoredAt: now, Body: body})
	if err != nil {
		return body, nil
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		Sugar.Warnf("feed cache set failed key=%s err=%v", key, err)
	}
	return body, nil
}

// Invalidate drops every entry so the next read recomputes.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	return c.store.DeletePrefix(ctx, c.prefix)
}

// RedisStore implements CacheStore on a Redis client.
type RedisStore struct {
	rc *redis.Client
}

func NewRedisStore(rc *redis.Client) *RedisStore {
	return &RedisStore{rc: rc}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := s.rc.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rc.Set(ctx, key, value, ttl).Err()
}

// DeletePrefix deletes keys that match the given prefix using SCAN.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for {
		keys, cur, err := s.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			pipe := s.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

// MemoryStore is a process-local CacheStore used when Redis is not configured.
// Entries expire after the ttl given to Set and are purged every minute.
type MemoryStore struct {
	items *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v.([]byte), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.items.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for k := range s.items.Items() {
		if strings.HasPrefix(k, prefix) {
			s.items.Delete(k)
		}
	}
	return nil
}

// Len purges expired entries and returns how many are left.
func (s *MemoryStore) Len() int {
	s.items.DeleteExpired()
	return s.items.ItemCount()
}
