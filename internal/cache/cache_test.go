package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(start time.Time) (*Memory, *time.Time) {
	c := NewMemory(time.Minute)
	now := start
	c.now = func() time.Time { return now }
	return c, &now
}

func TestSetGetAndExpiry(t *testing.T) {
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	c, now := newTestCache(base)

	type payload struct{ V int }
	c.Set(ctx, "x", payload{V: 1}, 100*time.Millisecond)

	*now = base.Add(50 * time.Millisecond)
	v, ok := c.Get(ctx, "x")
	if !ok || v.(payload).V != 1 {
		t.Fatalf("get at t=50ms: got %v ok=%v", v, ok)
	}

	*now = base.Add(150 * time.Millisecond)
	if _, ok := c.Get(ctx, "x"); ok {
		t.Fatal("get at t=150ms should miss")
	}
	// lazy deletion removed the entry
	if c.Len() != 0 {
		t.Fatalf("expected lazy delete, %d entries remain", c.Len())
	}
}

func TestDelAndExists(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(time.Unix(1700000000, 0))

	c.Set(ctx, "k", "v", time.Minute)
	if !c.Exists(ctx, "k") {
		t.Fatal("expected key to exist")
	}
	c.Del(ctx, "k")
	if c.Exists(ctx, "k") {
		t.Fatal("expected key gone after Del")
	}
}

func TestGetOrSetCachesFetchResult(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(time.Unix(1700000000, 0))

	calls := 0
	fetch := func(context.Context) (any, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet(ctx, "k", time.Minute, fetch)
		if err != nil || v.(int) != 42 {
			t.Fatalf("GetOrSet: v=%v err=%v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fetcher ran %d times, want 1", calls)
	}
}

func TestGetOrSetErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(time.Unix(1700000000, 0))

	boom := errors.New("fetch failed")
	if _, err := c.GetOrSet(ctx, "k", time.Minute, func(context.Context) (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	// no negative caching: the next fetch runs and succeeds
	v, err := c.GetOrSet(ctx, "k", time.Minute, func(context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil || v.(string) != "ok" {
		t.Fatalf("second GetOrSet: v=%v err=%v", v, err)
	}
}

func TestGetOrSetDedupesConcurrentFetches(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrSet(ctx, "cold", time.Minute, fetch)
			if err != nil {
				t.Errorf("GetOrSet: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	// let every goroutine reach the flight before the fetch resolves
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("fetcher ran %d times under interleaving, want 1", n)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("caller %d got %v", i, v)
		}
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	c, now := newTestCache(base)

	c.Set(ctx, "stale", 1, time.Second)
	c.Set(ctx, "live", 2, time.Hour)

	*now = base.Add(2 * time.Second)
	c.sweep()
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after sweep, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "live"); !ok {
		t.Fatal("live entry removed by sweep")
	}
}
