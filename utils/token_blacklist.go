package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist remembers logged-out tokens until they would expire anyway.
// Redis is used when configured so every instance sees the same list.
type TokenBlacklist struct {
	rc *redis.Client

	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, entries: map[string]time.Time{}}
}

// Add revokes token until expiresAt.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.rc.Set(ctx, "jwt:blacklist:"+token, "1", ttl).Err()
	}
	b.mu.Lock()
	b.entries[token] = expiresAt
	b.mu.Unlock()
	return nil
}

// Contains reports whether token was revoked. Redis errors fail open.
func (b *TokenBlacklist) Contains(ctx context.Context, token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, "jwt:blacklist:"+token).Result()
		if err != nil {
			Sugar.Warnf("token blacklist lookup failed err=%v", err)
			return false
		}
		return n > 0
	}

	b.mu.RLock()
	expiresAt, ok := b.entries[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false
	}
	return true
}
