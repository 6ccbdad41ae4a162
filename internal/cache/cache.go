// Package cache provides a TTL key-value store used as an optional
// read-through layer beside data-fetch paths. Expiry is enforced lazily on
// read and eagerly by a periodic sweep; there is no eviction policy beyond
// TTL, so high-cardinality keys can grow the map without bound.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value for a cold key.
type Fetcher func(ctx context.Context) (any, error)

// Store is the cache contract shared by the in-memory and Redis tiers.
type Store interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Del(ctx context.Context, key string)
	Exists(ctx context.Context, key string) bool
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fetch Fetcher) (any, error)
}

type item struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (it *item) expired(now time.Time) bool {
	return now.Sub(it.storedAt) > it.ttl
}

// Memory is the process-local Store implementation.
type Memory struct {
	mu      sync.Mutex
	items   map[string]*item
	flight  singleflight.Group
	now     func() time.Time
	sweepIv time.Duration

	stopCh       chan struct{}
	running      bool
	runningMutex sync.Mutex
}

func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Memory{
		items:   make(map[string]*item),
		now:     time.Now,
		sweepIv: sweepInterval,
		stopCh:  make(chan struct{}),
	}
}

// Get returns the value for key, treating expired entries as absent and
// deleting them on the spot.
func (m *Memory) Get(_ context.Context, key string) (any, bool) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if it.expired(now) {
		delete(m.items, key)
		return nil, false
	}
	return it.value, true
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = &item{value: value, storedAt: m.now(), ttl: ttl}
}

func (m *Memory) Del(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

func (m *Memory) Exists(ctx context.Context, key string) bool {
	_, ok := m.Get(ctx, key)
	return ok
}

// GetOrSet returns the cached value if present and unexpired; otherwise it
// runs fetch, stores the result, and returns it. Concurrent calls for the
// same cold key share a single fetch. A fetch error propagates to every
// waiter and nothing is cached.
func (m *Memory) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetch Fetcher) (any, error) {
	if v, ok := m.Get(ctx, key); ok {
		return v, nil
	}
	v, err, _ := m.flight.Do(key, func() (any, error) {
		// re-check: another flight may have filled the key between the
		// miss above and acquiring the flight slot
		if v, ok := m.Get(ctx, key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		m.Set(ctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Start launches the periodic sweep that removes expired entries never read
// again.
func (m *Memory) Start(ctx context.Context) {
	m.runningMutex.Lock()
	defer m.runningMutex.Unlock()
	if m.running {
		return
	}
	m.running = true
	go m.sweepLoop(ctx)
	log.Info().Dur("interval", m.sweepIv).Msg("cache sweep started")
}

func (m *Memory) Stop() {
	m.runningMutex.Lock()
	defer m.runningMutex.Unlock()
	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
	log.Info().Msg("cache sweep stopped")
}

func (m *Memory) sweepLoop(ctx context.Context) {
	t := time.NewTicker(m.sweepIv)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, it := range m.items {
		if it.expired(now) {
			delete(m.items, k)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(m.items)).Msg("cache sweep completed")
	}
}
