package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Error("wrong password accepted")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, expires, err := issuer.Issue(42, "leo")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("token already expired at %v", expires)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "leo" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := NewTokenIssuer("other-secret", time.Hour).Parse(token); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestTokenBlacklist_Memory(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist(nil)

	if b.Contains(ctx, "tok") {
		t.Fatal("fresh blacklist should be empty")
	}
	if err := b.Add(ctx, "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !b.Contains(ctx, "tok") {
		t.Fatal("token should be revoked")
	}
	if err := b.Add(ctx, "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("add expired: %v", err)
	}
	if b.Contains(ctx, "old") {
		t.Fatal("already expired token needs no entry")
	}
}

func TestTokenBlacklist_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	b := NewTokenBlacklist(rc)

	if err := b.Add(ctx, "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !b.Contains(ctx, "tok") {
		t.Fatal("token should be revoked")
	}
	if !mr.Exists("jwt:blacklist:tok") {
		t.Fatal("expected blacklist key in redis")
	}
	mr.FastForward(2 * time.Hour)
	if b.Contains(ctx, "tok") {
		t.Fatal("entry should expire with the token")
	}
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText("  <b>hello</b> <script>alert(1)</script>world ")
	if got != "hello world" {
		t.Fatalf("got %q", got)
	}
}
