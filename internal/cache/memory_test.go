// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestMemoryCache(maxSize int) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: maxSize})
	c.now = clock.Now
	return c, clock
}

func TestMemoryCache_SetGet(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}

	// The returned slice is a copy.
	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	if string(again) != "v" {
		t.Errorf("stored value was mutated through Get result: %q", again)
	}

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(missing) error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestMemoryCache(0)
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("1"), 10*time.Second)
	_ = c.Set(ctx, "default", []byte("2"), 0)

	clock.Advance(11 * time.Second)
	if ok, _ := c.Has(ctx, "short"); ok {
		t.Error("short entry should have expired")
	}
	if ok, _ := c.Has(ctx, "default"); !ok {
		t.Error("default TTL entry should still exist")
	}

	clock.Advance(time.Minute)
	if _, err := c.Get(ctx, "default"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after default TTL error = %v, want ErrCacheMiss", err)
	}
	if n := c.Stats().Items; n != 0 {
		t.Errorf("Items = %d, want 0 after expiry", n)
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	ctx := context.Background()

	for _, k := range []string{"posts:en", "posts:ko", "post:1:en", "portfolio:en"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.DeleteByPrefix(ctx, "posts:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	for k, want := range map[string]bool{"posts:en": false, "posts:ko": false, "post:1:en": true, "portfolio:en": true} {
		if got, _ := c.Has(ctx, k); got != want {
			t.Errorf("Has(%q) = %v, want %v", k, got, want)
		}
	}
}

func TestMemoryCache_MaxSizeEvictsNearestExpiry(t *testing.T) {
	c, clock := newTestMemoryCache(2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("a"), time.Minute)
	clock.Advance(time.Second)
	_ = c.Set(ctx, "b", []byte("b"), time.Minute)
	_ = c.Set(ctx, "c", []byte("c"), time.Minute)

	if ok, _ := c.Has(ctx, "a"); ok {
		t.Error("a should have been evicted")
	}
	for _, k := range []string{"b", "c"} {
		if ok, _ := c.Has(ctx, k); !ok {
			t.Errorf("%s should be present", k)
		}
	}

	// Overwriting an existing key does not evict.
	_ = c.Set(ctx, "b", []byte("b2"), time.Minute)
	if n := c.Stats().Items; n != 2 {
		t.Errorf("Items = %d, want 2", n)
	}
}

func TestMemoryCache_StatsAndSize(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("12345"), 0)
	_ = c.Set(ctx, "k", []byte("123"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "nope")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Sets != 2 {
		t.Errorf("Stats = %+v, want 1 hit, 1 miss, 2 sets", s)
	}
	if s.Size != 3 {
		t.Errorf("Size = %d, want 3", s.Size)
	}
	if s.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", s.HitRate)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Sets != 0 {
		t.Errorf("Stats after reset = %+v", s)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	_ = c.Close()
	_ = c.Close()

	ctx := context.Background()
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get error = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set error = %v, want ErrCacheClosed", err)
	}
	if err := c.Clear(ctx); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Clear error = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: 50, CleanupInterval: time.Millisecond})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			for range 100 {
				_ = c.Set(ctx, key, []byte(key), 0)
				_, _ = c.Get(ctx, key)
				_ = c.DeleteByPrefix(ctx, "z")
			}
		}(i)
	}
	wg.Wait()

	if n := c.Stats().Items; n > 50 {
		t.Errorf("Items = %d, exceeds max size", n)
	}
}
