// Package ratelimit implements a process-local fixed-window request limiter.
// Counters reset entirely at window boundaries; there is no distributed
// coordination, so limits hold per process only.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Rule configures the window applied to one identifier class.
type Rule struct {
	Window      time.Duration
	MaxRequests int
}

// Result is the admission decision. A denied request is a policy outcome,
// not an error: callers surface it as a structured response.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter tracks one fixed-window counter per identifier.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	sweepIv time.Duration

	stopCh       chan struct{}
	running      bool
	runningMutex sync.Mutex
}

func NewLimiter(sweepInterval time.Duration) *Limiter {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
		sweepIv: sweepInterval,
		stopCh:  make(chan struct{}),
	}
}

// Check admits or rejects one request for identifier under rule. The first
// call in a window (or any call after the window expired) starts a fresh
// window. Once the counter reaches rule.MaxRequests further calls are denied
// without incrementing, so the counter never grows past the limit.
func (l *Limiter) Check(identifier string, rule Rule) Result {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 0, resetAt: now.Add(rule.Window)}
		l.entries[identifier] = e
	}

	if e.count >= rule.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}
	}

	e.count++
	return Result{Allowed: true, Remaining: rule.MaxRequests - e.count, ResetAt: e.resetAt}
}

// Reset clears the identifier's window immediately, bypassing expiry.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, identifier)
}

// Len reports the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Start launches the background sweep that drops expired windows, bounding
// memory for identifiers that never return.
func (l *Limiter) Start(ctx context.Context) {
	l.runningMutex.Lock()
	defer l.runningMutex.Unlock()
	if l.running {
		return
	}
	l.running = true
	go l.sweepLoop(ctx)
	log.Info().Dur("interval", l.sweepIv).Msg("rate limiter sweep started")
}

// Stop halts the background sweep. Check/Reset remain usable.
func (l *Limiter) Stop() {
	l.runningMutex.Lock()
	defer l.runningMutex.Unlock()
	if !l.running {
		return
	}
	close(l.stopCh)
	l.running = false
	log.Info().Msg("rate limiter sweep stopped")
}

func (l *Limiter) sweepLoop(ctx context.Context) {
	t := time.NewTicker(l.sweepIv)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-t.C:
			l.sweep()
		}
	}
}

// sweep is a linear scan with deletions, bounded by map size.
func (l *Limiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(l.entries)).Msg("rate limiter sweep completed")
	}
}
