package utils

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return NewRedisStore(rc)
}

func testFeedCache(t *testing.T, store CacheStore) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewFeedCache(store, 20*time.Second, clock.Now)
	key := cache.Key("page=1")

	data := "v1"
	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte(data), nil
	}

	first, err := cache.GetOrCompute(ctx, key, compute)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	data = "v2"
	clock.Advance(19 * time.Second)
	second, err := cache.GetOrCompute(ctx, key, compute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if string(second) != string(first) || calls != 1 {
		t.Fatalf("within ttl: got %q after %d computes, want %q after 1", second, calls, first)
	}

	clock.Advance(2 * time.Second)
	third, err := cache.GetOrCompute(ctx, key, compute)
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if string(third) != "v2" || calls != 2 {
		t.Fatalf("after ttl: got %q after %d computes", third, calls)
	}

	data = "v3"
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	fourth, err := cache.GetOrCompute(ctx, key, compute)
	if err != nil {
		t.Fatalf("fourth call: %v", err)
	}
	if string(fourth) != "v3" {
		t.Fatalf("after invalidate: got %q, want v3", fourth)
	}
}

func TestFeedCache_Memory(t *testing.T) {
	testFeedCache(t, NewMemoryStore())
}

func TestFeedCache_Redis(t *testing.T) {
	testFeedCache(t, newRedisStore(t))
}

func TestFeedCache_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	cache := NewFeedCache(NewMemoryStore(), time.Minute, nil)

	a, _ := cache.GetOrCompute(ctx, cache.Key("page=1"), func() ([]byte, error) { return []byte("one"), nil })
	b, _ := cache.GetOrCompute(ctx, cache.Key("page=2"), func() ([]byte, error) { return []byte("two"), nil })
	if string(a) != "one" || string(b) != "two" {
		t.Fatalf("got %q and %q", a, b)
	}
}

func TestFeedCache_ComputeErrorIsNotStored(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache := NewFeedCache(store, time.Minute, nil)
	key := cache.Key("page=1")

	boom := errors.New("boom")
	if _, err := cache.GetOrCompute(ctx, key, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("failed compute must not be cached, got %v", err)
	}
}

func TestRedisStore_DeletePrefixKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)

	for _, k := range []string{IndexCachePrefix + "page=1", IndexCachePrefix + "page=2", "other:key"} {
		if err := store.Set(ctx, k, []byte("x"), time.Minute); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := store.DeletePrefix(ctx, IndexCachePrefix); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, err := store.Get(ctx, IndexCachePrefix+"page=1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("page=1 should be gone, got %v", err)
	}
	if _, err := store.Get(ctx, "other:key"); err != nil {
		t.Errorf("other:key should survive, got %v", err)
	}
}

func TestMemoryStore_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 500; i++ {
		if err := store.Set(ctx, IndexCachePrefix+"page="+strconv.Itoa(1000000+i), []byte("x"), 10*time.Millisecond); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if err := store.Set(ctx, IndexCachePrefix+"page=1", []byte("kept"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := store.Len(); n != 1 {
		t.Fatalf("entries left after ttl: %d, want 1", n)
	}
	if _, err := store.Get(ctx, IndexCachePrefix+"page=1000000"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired entry still readable: %v", err)
	}
	if b, err := store.Get(ctx, IndexCachePrefix+"page=1"); err != nil || string(b) != "kept" {
		t.Fatalf("live entry: %q %v", b, err)
	}
}

func TestMemoryStore_ZeroTTLIsNotStored(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache := NewFeedCache(store, 0, nil)

	calls := 0
	for i := 0; i < 2; i++ {
		if _, err := cache.GetOrCompute(ctx, cache.Key("page=1"), func() ([]byte, error) {
			calls++
			return []byte("x"), nil
		}); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if calls != 2 || store.Len() != 0 {
		t.Fatalf("zero ttl: %d computes, %d entries", calls, store.Len())
	}
}
