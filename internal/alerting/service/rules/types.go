package rules

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidRule indicates a rule is incomplete or references an
	// unknown snapshot metric.
	ErrInvalidRule = errors.New("invalid alert rule")
	// ErrRuleNotFound is returned for lookups and updates on absent rules.
	ErrRuleNotFound = errors.New("alert rule not found")
)

// Snapshot metrics a rule predicate may reference.
const (
	MetricErrorRate       = "error_rate"
	MetricAvgResponseTime = "avg_response_time"
	MetricTrafficSpike    = "traffic_spike"
)

// AlertRule is a static threshold predicate over aggregated metrics.
// The predicate is "Metric Op Threshold"; Cooldown is the minimum time
// between successive alert emissions for the rule.
type AlertRule struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Metric    string        `json:"metric"`
	Op        string        `json:"op"` // one of >, <, >=, <=
	Threshold float64       `json:"threshold"`
	Severity  string        `json:"severity"` // low | medium | high | critical
	Cooldown  time.Duration `json:"cooldown"`
	Enabled   bool          `json:"enabled"`
}

// Validate checks the fields callers can get wrong.
func (r *AlertRule) Validate() error {
	if r == nil || r.ID == "" || r.Name == "" {
		return ErrInvalidRule
	}
	switch r.Metric {
	case MetricErrorRate, MetricAvgResponseTime, MetricTrafficSpike:
	default:
		return ErrInvalidRule
	}
	switch r.Op {
	case ">", "<", ">=", "<=":
	default:
		return ErrInvalidRule
	}
	switch r.Severity {
	case "low", "medium", "high", "critical":
	default:
		return ErrInvalidRule
	}
	return nil
}

// Holds reports whether the predicate is satisfied by value.
func (r *AlertRule) Holds(value float64) bool {
	switch r.Op {
	case ">":
		return value > r.Threshold
	case "<":
		return value < r.Threshold
	case ">=":
		return value >= r.Threshold
	case "<=":
		return value <= r.Threshold
	}
	return false
}

// Store abstracts rule persistence. Implementations must upsert by ID.
type Store interface {
	UpsertRule(ctx context.Context, r *AlertRule) error
	GetRule(ctx context.Context, id string) (*AlertRule, error)
	ListRules(ctx context.Context) ([]*AlertRule, error)
	DeleteRule(ctx context.Context, id string) error
}
