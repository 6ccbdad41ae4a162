package metrics

import (
	"context"
	"testing"
	"time"
)

func newTestCollector(start time.Time) (*Collector, *time.Time) {
	c := NewCollector(100, time.Minute)
	now := start
	c.now = func() time.Time { return now }
	c.lastSnapshot = start
	return c, &now
}

func TestSnapshotErrorRate(t *testing.T) {
	base := time.Unix(1700000000, 0)
	c, now := newTestCollector(base)

	*now = base.Add(time.Second)
	for i := 0; i < 20; i++ {
		c.Increment("request", nil)
	}
	c.Increment("error", nil)
	c.Increment("error", nil)

	*now = base.Add(time.Minute)
	snap := c.snapshot()
	if snap.RequestCount != 20 || snap.ErrorCount != 2 {
		t.Fatalf("counts: %+v", snap)
	}
	if snap.ErrorRate != 0.1 {
		t.Fatalf("error rate %v, want 0.1", snap.ErrorRate)
	}
}

func TestSnapshotAvgResponseTime(t *testing.T) {
	base := time.Unix(1700000000, 0)
	c, now := newTestCollector(base)

	*now = base.Add(time.Second)
	c.Timing("response_time", 100, nil)
	c.Timing("response_time", 300, nil)

	snap := c.snapshot()
	if snap.AvgResponseTimeMs != 200 {
		t.Fatalf("avg response time %v, want 200", snap.AvgResponseTimeMs)
	}
}

func TestSnapshotTrafficSpikeDefaultsToOne(t *testing.T) {
	base := time.Unix(1700000000, 0)
	c, now := newTestCollector(base)

	*now = base.Add(time.Second)
	c.Increment("request", nil)
	snap := c.snapshot()
	// no previous window: ratio defaults to 1 to avoid divide-by-zero
	if snap.TrafficSpike != 1.0 {
		t.Fatalf("first snapshot spike %v, want 1.0", snap.TrafficSpike)
	}
}

func TestSnapshotTrafficSpikeRatio(t *testing.T) {
	base := time.Unix(1700000000, 0)
	c, now := newTestCollector(base)

	*now = base.Add(time.Second)
	for i := 0; i < 10; i++ {
		c.Increment("request", nil)
	}
	c.snapshot()

	*now = base.Add(2 * time.Second)
	for i := 0; i < 30; i++ {
		c.Increment("request", nil)
	}
	snap := c.snapshot()
	if snap.TrafficSpike != 3.0 {
		t.Fatalf("spike %v, want 3.0", snap.TrafficSpike)
	}
}

func TestSnapshotWindowExcludesOldSamples(t *testing.T) {
	base := time.Unix(1700000000, 0)
	c, now := newTestCollector(base)

	*now = base.Add(time.Second)
	c.Increment("request", nil)
	c.snapshot()

	// the earlier sample belongs to the previous window
	*now = base.Add(2 * time.Second)
	snap := c.snapshot()
	if snap.RequestCount != 0 {
		t.Fatalf("stale sample counted: %+v", snap)
	}
}

func TestRingDropsOldestAtCapacity(t *testing.T) {
	r := newRing(3)
	for i := 1; i <= 5; i++ {
		r.add(Sample{Value: float64(i)})
	}
	sum := 0.0
	count := 0
	r.each(func(s Sample) {
		sum += s.Value
		count++
	})
	if count != 3 {
		t.Fatalf("ring holds %d samples, want 3", count)
	}
	// 1 and 2 were evicted
	if sum != 3+4+5 {
		t.Fatalf("ring sum %v, want 12", sum)
	}
}

func TestConsumersReceiveSnapshot(t *testing.T) {
	base := time.Unix(1700000000, 0)
	c, now := newTestCollector(base)

	var got *Snapshot
	c.Subscribe(func(s Snapshot) { got = &s })

	*now = base.Add(time.Second)
	c.Increment("request", nil)
	c.tick(context.Background())

	if got == nil || got.RequestCount != 1 {
		t.Fatalf("consumer snapshot: %+v", got)
	}
}
