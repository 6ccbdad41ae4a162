package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huntu09/airdropshunter-sub001/internal/alerting/service/rules"
	"github.com/huntu09/airdropshunter-sub001/internal/metrics"
)

type memRuleStore struct {
	mu    sync.Mutex
	rules map[string]*rules.AlertRule
}

func newMemRuleStore(rs ...*rules.AlertRule) *memRuleStore {
	s := &memRuleStore{rules: map[string]*rules.AlertRule{}}
	for _, r := range rs {
		s.rules[r.ID] = r
	}
	return s
}

func (s *memRuleStore) UpsertRule(ctx context.Context, r *rules.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
	return nil
}

func (s *memRuleStore) GetRule(ctx context.Context, id string) (*rules.AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rules[id]; ok {
		return r, nil
	}
	return nil, rules.ErrRuleNotFound
}

func (s *memRuleStore) ListRules(ctx context.Context) ([]*rules.AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*rules.AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	return out, nil
}

func (s *memRuleStore) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []*Alert
	fail   bool
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(_ context.Context, a *Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	if n.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func highErrorRateRule() *rules.AlertRule {
	return &rules.AlertRule{
		ID:        "high_error_rate",
		Name:      "High error rate",
		Metric:    rules.MetricErrorRate,
		Op:        ">",
		Threshold: 0.05,
		Severity:  "high",
		Cooldown:  15 * time.Minute,
		Enabled:   true,
	}
}

func TestSnapshotTriggersAlertOncePerCooldown(t *testing.T) {
	base := time.Unix(1700000000, 0)
	m := NewManager(newMemRuleStore(highErrorRateRule()), 100)
	now := base
	m.now = func() time.Time { return now }

	snap := metrics.Snapshot{Timestamp: base, ErrorRate: 0.10, TrafficSpike: 1}
	m.OnSnapshot(snap)
	if got := m.Alerts(); len(got) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(got))
	}

	// same predicate inside the cooldown window: no new alert
	now = base.Add(5 * time.Minute)
	m.OnSnapshot(snap)
	if got := m.Alerts(); len(got) != 1 {
		t.Fatalf("cooldown violated, got %d alerts", len(got))
	}

	// cooldown elapsed: rule may fire again
	now = base.Add(16 * time.Minute)
	m.OnSnapshot(snap)
	if got := m.Alerts(); len(got) != 2 {
		t.Fatalf("expected second alert after cooldown, got %d", len(got))
	}
}

func TestPredicateBelowThresholdDoesNotTrigger(t *testing.T) {
	m := NewManager(newMemRuleStore(highErrorRateRule()), 100)
	m.OnSnapshot(metrics.Snapshot{ErrorRate: 0.01, TrafficSpike: 1})
	if got := m.Alerts(); len(got) != 0 {
		t.Fatalf("unexpected alerts: %d", len(got))
	}
}

func TestDisabledRuleNeverTriggers(t *testing.T) {
	r := highErrorRateRule()
	r.Enabled = false
	m := NewManager(newMemRuleStore(r), 100)
	m.OnSnapshot(metrics.Snapshot{ErrorRate: 0.99, TrafficSpike: 1})
	if got := m.Alerts(); len(got) != 0 {
		t.Fatalf("disabled rule fired: %d alerts", len(got))
	}
}

func TestResolveAlertFlipsOnlyMatching(t *testing.T) {
	base := time.Unix(1700000000, 0)
	r := highErrorRateRule()
	r.Cooldown = 0
	m := NewManager(newMemRuleStore(r), 100)
	now := base
	m.now = func() time.Time { return now }

	m.OnSnapshot(metrics.Snapshot{Timestamp: base, ErrorRate: 0.1, TrafficSpike: 1})
	now = base.Add(time.Minute)
	m.OnSnapshot(metrics.Snapshot{Timestamp: now, ErrorRate: 0.1, TrafficSpike: 1})

	alerts := m.Alerts()
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if err := m.ResolveAlert(alerts[0].ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	alerts = m.Alerts()
	if !alerts[0].Resolved {
		t.Fatal("target alert not resolved")
	}
	if alerts[1].Resolved {
		t.Fatal("unrelated alert resolved")
	}

	if err := m.ResolveAlert("missing"); !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}
}

func TestHistoryCapTrimsOldest(t *testing.T) {
	base := time.Unix(1700000000, 0)
	r := highErrorRateRule()
	r.Cooldown = 0
	m := NewManager(newMemRuleStore(r), 3)
	now := base
	m.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		now = now.Add(time.Minute)
		m.OnSnapshot(metrics.Snapshot{Timestamp: now, ErrorRate: 0.1, TrafficSpike: 1})
	}
	alerts := m.Alerts()
	if len(alerts) != 3 {
		t.Fatalf("history length %d, want 3", len(alerts))
	}
	// most recent first: the newest alert carries the latest timestamp
	if !alerts[0].Timestamp.After(alerts[2].Timestamp) {
		t.Fatalf("history not most-recent-first: %v vs %v", alerts[0].Timestamp, alerts[2].Timestamp)
	}
}

func TestNotifierFailureDoesNotAffectBookkeeping(t *testing.T) {
	n := &recordingNotifier{fail: true}
	m := NewManager(newMemRuleStore(highErrorRateRule()), 100, WithNotifiers(n))

	m.OnSnapshot(metrics.Snapshot{ErrorRate: 0.1, TrafficSpike: 1})
	if got := m.Alerts(); len(got) != 1 {
		t.Fatalf("alert not raised despite notifier failure: %d", len(got))
	}
	if len(n.alerts) != 1 {
		t.Fatalf("notifier not invoked: %d", len(n.alerts))
	}
}

func TestEmailNotifierOnlyCritical(t *testing.T) {
	n := NewEmailNotifier("admin@example.com")
	if err := n.Notify(context.Background(), &Alert{Severity: "high"}); err != nil {
		t.Fatalf("non-critical notify: %v", err)
	}
	if err := n.Notify(context.Background(), &Alert{Severity: "critical", Title: "t"}); err != nil {
		t.Fatalf("critical notify: %v", err)
	}
}
