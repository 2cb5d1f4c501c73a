package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestMemoryCacheExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	if err := c.Set(ctx, "services:all", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	val, ok, err := c.Get(ctx, "services:all")
	if err != nil || !ok || string(val) != "v1" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", val, ok, err)
	}

	clock.now = clock.now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "services:all"); ok {
		t.Fatalf("expected entry to expire at ttl boundary")
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	_ = c.Set(ctx, "reservation:session:a", []byte("a"), time.Minute)
	_ = c.Set(ctx, "reservation:session:b", []byte("b"), time.Minute)
	_ = c.Set(ctx, "services:all", []byte("s"), time.Minute)

	if err := c.DeletePrefix(ctx, "reservation:"); err != nil {
		t.Fatalf("DeletePrefix error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "reservation:session:a"); ok {
		t.Fatalf("expected prefixed key to be removed")
	}
	if _, ok, _ := c.Get(ctx, "services:all"); !ok {
		t.Fatalf("expected unrelated key to survive")
	}
}

func TestMemoryCacheIncrWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, "rl:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("Incr error: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}

	clock.now = clock.now.Add(2 * time.Minute)
	got, _ := c.Incr(ctx, "rl:1.2.3.4", time.Minute)
	if got != 1 {
		t.Fatalf("expected counter reset after window, got %d", got)
	}
}

func TestMemoryCachePurge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)
	ctx := context.Background()
	_ = c.Set(ctx, "a", []byte("1"), time.Second)
	_ = c.Set(ctx, "b", []byte("1"), 0)

	clock.now = clock.now.Add(time.Hour)
	if removed := c.Purge(); removed != 1 {
		t.Fatalf("expected 1 purged entry, got %d", removed)
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Fatalf("expected entry without ttl to persist")
	}
}

func TestGetOrRefresh(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"Tuns", "Barba"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrRefresh(ctx, c, "services:all", time.Minute, load)
		if err != nil {
			t.Fatalf("GetOrRefresh error: %v", err)
		}
		if len(got) != 2 || got[0] != "Tuns" {
			t.Fatalf("unexpected value: %v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected loader to run once, ran %d times", calls)
	}
}

func TestGetOrRefreshNoopAlwaysLoads(t *testing.T) {
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 2; i++ {
		if _, err := GetOrRefresh(ctx, NewNoop(), "k", time.Minute, load); err != nil {
			t.Fatalf("GetOrRefresh error: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected loader on every call with noop cache, got %d", calls)
	}
}

func TestGetOrRefreshLoaderError(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	boom := errors.New("store down")
	_, err := GetOrRefresh(ctx, c, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("failed load must not be cached")
	}
}
