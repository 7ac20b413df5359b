package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	Name  string   `json:"name"`
	Moves []string `json:"moves"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromClient(rdb, nil), mr
}

func TestSetGetDel(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{Name: "a", Moves: []string{"e2e4"}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got payload
	found, err := c.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.Name != "a" || len(got.Moves) != 1 || got.Moves[0] != "e2e4" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Fatalf("ttl = %s", ttl)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	found, err = c.Get(ctx, "k", &got)
	if err != nil || found {
		t.Fatalf("expected miss after delete, found=%v err=%v", found, err)
	}
}

func TestGetExpired(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	if err := c.Set(ctx, "k", payload{Name: "a"}, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)
	var got payload
	if found, err := c.Get(ctx, "k", &got); err != nil || found {
		t.Fatalf("expected expiry, found=%v err=%v", found, err)
	}
}

func TestGetCorrupt(t *testing.T) {
	c, mr := newTestCache(t)
	if err := mr.Set("k", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var got payload
	if _, err := c.Get(context.Background(), "k", &got); err == nil {
		t.Fatalf("expected decode error")
	}
}
