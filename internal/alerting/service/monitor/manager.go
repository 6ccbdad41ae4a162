// Package monitor evaluates alert rules against metrics snapshots and owns
// the alert history. A rule fires at most once per cooldown window; repeated
// predicate-true evaluations inside the cooldown emit nothing.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huntu09/airdropshunter-sub001/internal/alerting/service/rules"
	"github.com/huntu09/airdropshunter-sub001/internal/metrics"
)

// Alert is one emitted incident. Resolved is a manual flag only; there is
// no separate acknowledged state.
type Alert struct {
	ID        string    `json:"id"`
	RuleID    string    `json:"rule_id"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// ErrAlertNotFound is returned by ResolveAlert for unknown ids.
var ErrAlertNotFound = fmt.Errorf("alert not found")

// HistoryWriter persists emitted alerts. Writes are best-effort; failures
// never affect alert bookkeeping.
type HistoryWriter interface {
	InsertAlert(ctx context.Context, a *Alert) error
}

// Manager evaluates every enabled rule on each snapshot.
type Manager struct {
	store     rules.Store
	notifiers []Notifier
	history   HistoryWriter

	mu            sync.Mutex
	alerts        []*Alert // most recent first, capped
	lastTriggered map[string]time.Time
	historyLimit  int
	now           func() time.Time
}

type ManagerOption func(*Manager)

func WithNotifiers(ns ...Notifier) ManagerOption {
	return func(m *Manager) { m.notifiers = append(m.notifiers, ns...) }
}

func WithHistoryWriter(h HistoryWriter) ManagerOption {
	return func(m *Manager) { m.history = h }
}

func NewManager(store rules.Store, historyLimit int, opts ...ManagerOption) *Manager {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	m := &Manager{
		store:         store,
		lastTriggered: make(map[string]time.Time),
		historyLimit:  historyLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnSnapshot is wired as a metrics.Consumer.
func (m *Manager) OnSnapshot(snap metrics.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	list, err := m.store.ListRules(ctx)
	if err != nil {
		log.Error().Err(err).Msg("alert evaluation skipped, rule listing failed")
		return
	}

	for _, r := range list {
		if !r.Enabled {
			continue
		}
		value, ok := snapshotValue(r.Metric, snap)
		if !ok || !r.Holds(value) {
			continue
		}
		m.trigger(ctx, r, value, snap.Timestamp)
	}
}

func snapshotValue(metric string, snap metrics.Snapshot) (float64, bool) {
	switch metric {
	case rules.MetricErrorRate:
		return snap.ErrorRate, true
	case rules.MetricAvgResponseTime:
		return snap.AvgResponseTimeMs, true
	case rules.MetricTrafficSpike:
		return snap.TrafficSpike, true
	}
	return 0, false
}

func (m *Manager) trigger(ctx context.Context, r *rules.AlertRule, value float64, at time.Time) {
	now := m.now()

	m.mu.Lock()
	if last, ok := m.lastTriggered[r.ID]; ok && now.Sub(last) < r.Cooldown {
		m.mu.Unlock()
		return
	}
	m.lastTriggered[r.ID] = now

	alert := &Alert{
		ID:        uuid.NewString(),
		RuleID:    r.ID,
		Severity:  r.Severity,
		Title:     r.Name,
		Message:   fmt.Sprintf("%s is %.4f (threshold %s %.4f)", r.Metric, value, r.Op, r.Threshold),
		Timestamp: at,
	}
	m.alerts = append([]*Alert{alert}, m.alerts...)
	if len(m.alerts) > m.historyLimit {
		m.alerts = m.alerts[:m.historyLimit]
	}
	m.mu.Unlock()

	log.Warn().
		Str("alert_id", alert.ID).
		Str("rule", r.ID).
		Str("severity", alert.Severity).
		Float64("value", value).
		Msg("alert triggered")

	if m.history != nil {
		if err := m.history.InsertAlert(ctx, alert); err != nil {
			log.Warn().Err(err).Str("alert_id", alert.ID).Msg("alert history insert failed")
		}
	}

	// delivery failures never affect bookkeeping: the alert is raised
	// whether or not any notifier succeeds
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			log.Error().Err(err).Str("notifier", n.Name()).Str("alert_id", alert.ID).Msg("alert notification failed")
		}
	}
}

// ResolveAlert sets resolved on exactly the matching alert.
func (m *Manager) ResolveAlert(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ID == id {
			a.Resolved = true
			return nil
		}
	}
	return ErrAlertNotFound
}

// Alerts returns the retained history, most recent first.
func (m *Manager) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.alerts))
	for i, a := range m.alerts {
		out[i] = *a
	}
	return out
}
