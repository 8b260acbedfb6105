package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewStore(client, "rvk")
}

func TestBlacklistAndLookup(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Blacklist(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}

	hit, err := store.IsBlacklisted(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if !hit {
		t.Fatal("expected jti-1 to be blacklisted")
	}

	hit, err = store.IsBlacklisted(ctx, "jti-2")
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if hit {
		t.Fatal("expected jti-2 to be absent")
	}
}

func TestBlacklistEntryExpires(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Blacklist(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	hit, err := store.IsBlacklisted(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if hit {
		t.Fatal("entry should have expired with the token")
	}
}

func TestBlacklistNonPositiveTTLIsNoOp(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Blacklist(ctx, "jti-1", 0); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}
	if err := store.Blacklist(ctx, "jti-2", -time.Minute); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}

	if got := len(mr.Keys()); got != 0 {
		t.Fatalf("keys = %d, want 0", got)
	}
}

func TestStoreWrapsUnavailable(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	if err := store.Blacklist(ctx, "jti-1", time.Hour); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Blacklist err = %v, want ErrUnavailable", err)
	}
	if _, err := store.IsBlacklisted(ctx, "jti-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("IsBlacklisted err = %v, want ErrUnavailable", err)
	}
}

func TestMemoryStore(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Blacklist(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}
	hit, err := mem.IsBlacklisted(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if !hit {
		t.Fatal("expected jti-1 to be blacklisted")
	}

	if err := mem.Blacklist(ctx, "jti-2", -time.Second); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}
	hit, err = mem.IsBlacklisted(ctx, "jti-2")
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if hit {
		t.Fatal("non-positive ttl must not create an entry")
	}
}
