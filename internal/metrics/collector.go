// Package metrics keeps an in-memory ring buffer of timestamped samples per
// named metric and periodically aggregates them into snapshots consumed by
// the alert manager and forwarded, best-effort, to an external monitoring
// endpoint.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sample is one observation of a named metric.
type Sample struct {
	Timestamp time.Time         `json:"timestamp"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Snapshot is the aggregate handed to consumers on every tick.
type Snapshot struct {
	Timestamp         time.Time `json:"timestamp"`
	RequestCount      int       `json:"request_count"`
	ErrorCount        int       `json:"error_count"`
	ErrorRate         float64   `json:"error_rate"`
	AvgResponseTimeMs float64   `json:"avg_response_time_ms"`
	TrafficSpike      float64   `json:"traffic_spike"`
}

// Consumer receives each snapshot. Consumers must not block.
type Consumer func(Snapshot)

type ring struct {
	samples []Sample
	next    int
	full    bool
}

func newRing(capacity int) *ring {
	return &ring{samples: make([]Sample, capacity)}
}

func (r *ring) add(s Sample) {
	r.samples[r.next] = s
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// each visits samples in unspecified order; aggregation only needs counts.
func (r *ring) each(fn func(Sample)) {
	n := r.next
	if r.full {
		n = len(r.samples)
	}
	for i := 0; i < n; i++ {
		fn(r.samples[i])
	}
}

// Collector owns the sample rings exclusively. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	rings    map[string]*ring
	capacity int
	now      func() time.Time

	lastSnapshot  time.Time
	prevRequests  int
	consumers     []Consumer
	mirror        *Mirror
	forwarder     *Forwarder
	interval      time.Duration
	stopCh        chan struct{}
	running       bool
	runningMutex  sync.Mutex
}

type Option func(*Collector)

// WithMirror mirrors counters and timings into a prometheus registry.
func WithMirror(m *Mirror) Option { return func(c *Collector) { c.mirror = m } }

// WithForwarder forwards snapshots to an external monitoring endpoint.
func WithForwarder(f *Forwarder) Option { return func(c *Collector) { c.forwarder = f } }

func NewCollector(samplesPerMetric int, snapshotInterval time.Duration, opts ...Option) *Collector {
	if samplesPerMetric <= 0 {
		samplesPerMetric = 1000
	}
	if snapshotInterval <= 0 {
		snapshotInterval = time.Minute
	}
	c := &Collector{
		rings:    make(map[string]*ring),
		capacity: samplesPerMetric,
		now:      time.Now,
		interval: snapshotInterval,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastSnapshot = c.now()
	return c
}

// Subscribe registers a snapshot consumer. Not safe to call after Start.
func (c *Collector) Subscribe(fn Consumer) {
	c.consumers = append(c.consumers, fn)
}

// Record appends one sample to the metric's ring, dropping the oldest once
// the cap is reached.
func (c *Collector) Record(name string, value float64, tags map[string]string) {
	s := Sample{Timestamp: c.now(), Value: value, Tags: tags}
	c.mu.Lock()
	r, ok := c.rings[name]
	if !ok {
		r = newRing(c.capacity)
		c.rings[name] = r
	}
	r.add(s)
	c.mu.Unlock()

	if c.mirror != nil {
		c.mirror.Observe(name, value, tags)
	}
}

// Increment is Record with value 1.
func (c *Collector) Increment(name string, tags map[string]string) {
	c.Record(name, 1, tags)
}

// Timing records a duration in milliseconds.
func (c *Collector) Timing(name string, durationMs float64, tags map[string]string) {
	c.Record(name, durationMs, tags)
}

// Gauge records a point-in-time value.
func (c *Collector) Gauge(name string, value float64, tags map[string]string) {
	c.Record(name, value, tags)
	if c.mirror != nil {
		c.mirror.SetGauge(name, value, tags)
	}
}

// snapshot aggregates the trailing window since the previous snapshot:
// error rate over requests, mean response time, and the request-count ratio
// against the previous window (1.0 when there is no prior data).
func (c *Collector) snapshot() Snapshot {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	since := c.lastSnapshot
	requests := c.countInWindow("request", since)
	errors := c.countInWindow("error", since)

	errorRate := 0.0
	if requests > 0 {
		errorRate = float64(errors) / float64(requests)
	}

	var sum float64
	var n int
	if r, ok := c.rings["response_time"]; ok {
		r.each(func(s Sample) {
			if s.Timestamp.After(since) {
				sum += s.Value
				n++
			}
		})
	}
	avg := 0.0
	if n > 0 {
		avg = sum / float64(n)
	}

	spike := 1.0
	if c.prevRequests > 0 {
		spike = float64(requests) / float64(c.prevRequests)
	}

	c.prevRequests = requests
	c.lastSnapshot = now

	return Snapshot{
		Timestamp:         now,
		RequestCount:      requests,
		ErrorCount:        errors,
		ErrorRate:         errorRate,
		AvgResponseTimeMs: avg,
		TrafficSpike:      spike,
	}
}

func (c *Collector) countInWindow(name string, since time.Time) int {
	r, ok := c.rings[name]
	if !ok {
		return 0
	}
	n := 0
	r.each(func(s Sample) {
		if s.Timestamp.After(since) {
			n++
		}
	})
	return n
}

// Start begins the periodic snapshot loop.
func (c *Collector) Start(ctx context.Context) {
	c.runningMutex.Lock()
	defer c.runningMutex.Unlock()
	if c.running {
		return
	}
	c.running = true
	go c.loop(ctx)
	log.Info().Dur("interval", c.interval).Msg("metrics snapshot loop started")
}

func (c *Collector) Stop() {
	c.runningMutex.Lock()
	defer c.runningMutex.Unlock()
	if !c.running {
		return
	}
	close(c.stopCh)
	c.running = false
	log.Info().Msg("metrics snapshot loop stopped")
}

func (c *Collector) loop(ctx context.Context) {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-t.C:
			c.tick(ctx)
		}
	}
}

func (c *Collector) tick(ctx context.Context) {
	snap := c.snapshot()
	log.Debug().
		Int("requests", snap.RequestCount).
		Float64("error_rate", snap.ErrorRate).
		Float64("avg_response_ms", snap.AvgResponseTimeMs).
		Float64("traffic_spike", snap.TrafficSpike).
		Msg("metrics snapshot computed")

	for _, fn := range c.consumers {
		fn(snap)
	}
	if c.forwarder != nil {
		// forwarding failures are logged inside and never surfaced
		c.forwarder.Forward(ctx, snap)
	}
}
