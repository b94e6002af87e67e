package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	s := NewStore(client, "skillhub")

	if _, found, err := s.Get(ctx, "skillhub_clients"); err != nil || found {
		t.Fatalf("expected missing key, got found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "skillhub_clients", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := mr.Get("skillhub:skillhub_clients"); err != nil || got != "[]" {
		t.Fatalf("expected namespaced key in redis, got %q err=%v", got, err)
	}
	if ttl := mr.TTL("skillhub:skillhub_clients"); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}

	v, found, err := s.Get(ctx, "skillhub_clients")
	if err != nil || !found || v != "[]" {
		t.Fatalf("expected stored value, got %q found=%v err=%v", v, found, err)
	}

	if err := s.Remove(ctx, "skillhub_clients"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists("skillhub:skillhub_clients") {
		t.Fatalf("expected key to be deleted")
	}
	if err := s.Remove(ctx, "never-set"); err != nil {
		t.Fatalf("removing an absent key should succeed: %v", err)
	}
}

func TestStore_NoNamespace(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	s := NewStore(client, "")

	if err := s.Set(ctx, "counter", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("counter"); got != "3" {
		t.Fatalf("expected unprefixed key, got %q", got)
	}
}

func TestStore_ClearOnlyTouchesNamespace(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	s := NewStore(client, "skillhub")
	idem := NewIdempotencyStore(client, "skillhub")

	// More keys than one scan batch.
	for i := 0; i < scanBatch+25; i++ {
		if err := s.Set(ctx, fmt.Sprintf("skillhub_credential:CLIENT_%03d", i), "{}"); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if err := idem.Remember(ctx, "req-1", "CLIENT_001"); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if err := mr.Set("other:skillhub_clients", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "other:skillhub_clients" {
		t.Fatalf("expected only the foreign key to survive, got %v", keys)
	}
}

func TestStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	s := NewStore(client, "skillhub")
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.SetError("ERR backend unavailable")

	if _, _, err := s.Get(ctx, "k"); err == nil {
		t.Fatalf("expected get error")
	}
	if err := s.Set(ctx, "k", "v"); err == nil {
		t.Fatalf("expected set error")
	}
	if err := s.Clear(ctx); err == nil {
		t.Fatalf("expected clear error")
	}
	if err := s.Ping(ctx); err == nil {
		t.Fatalf("expected ping error")
	}

	mr.SetError("")
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("expected ping to recover: %v", err)
	}
}

func TestIdempotencyStore_RememberExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	idem := NewIdempotencyStore(client, "skillhub")

	if _, found, err := idem.Lookup(ctx, "req-1"); err != nil || found {
		t.Fatalf("expected unknown key, got found=%v err=%v", found, err)
	}
	if err := idem.Remember(ctx, "req-1", "CLIENT_007"); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if ttl := mr.TTL("skillhub:idem:req-1"); ttl != idempotencyTTL {
		t.Fatalf("expected ttl %v, got %v", idempotencyTTL, ttl)
	}
	id, found, err := idem.Lookup(ctx, "req-1")
	if err != nil || !found || id != "CLIENT_007" {
		t.Fatalf("expected CLIENT_007, got %q found=%v err=%v", id, found, err)
	}

	mr.FastForward(idempotencyTTL + 1)
	if _, found, _ := idem.Lookup(ctx, "req-1"); found {
		t.Fatalf("expected key to expire")
	}
}
