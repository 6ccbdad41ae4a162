package rules

import (
	"context"
	"fmt"
	"time"

	adb "github.com/huntu09/airdropshunter-sub001/internal/alerting/database"
)

// PgStore is the PostgreSQL-backed Store implementation using the alerting
// database wrapper. Cooldowns are persisted as whole seconds.
type PgStore struct {
	DB *adb.Database
}

func NewPgStore(db *adb.Database) *PgStore { return &PgStore{DB: db} }

func (s *PgStore) UpsertRule(ctx context.Context, r *AlertRule) error {
	const q = `
	INSERT INTO alert_rules(id, name, metric, op, threshold, severity, cooldown_seconds, enabled)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		metric = EXCLUDED.metric,
		op = EXCLUDED.op,
		threshold = EXCLUDED.threshold,
		severity = EXCLUDED.severity,
		cooldown_seconds = EXCLUDED.cooldown_seconds,
		enabled = EXCLUDED.enabled,
		updated_at = now()
	`
	_, err := s.DB.ExecContext(ctx, q, r.ID, r.Name, r.Metric, r.Op, r.Threshold, r.Severity, int(r.Cooldown.Seconds()), r.Enabled)
	if err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}
	return nil
}

func (s *PgStore) GetRule(ctx context.Context, id string) (*AlertRule, error) {
	const q = `SELECT id, name, metric, op, threshold, severity, cooldown_seconds, enabled
	FROM alert_rules WHERE id = $1`
	rows, err := s.DB.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return scanRule(rows)
	}
	return nil, ErrRuleNotFound
}

func (s *PgStore) ListRules(ctx context.Context) ([]*AlertRule, error) {
	const q = `SELECT id, name, metric, op, threshold, severity, cooldown_seconds, enabled
	FROM alert_rules ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	var out []*AlertRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PgStore) DeleteRule(ctx context.Context, id string) error {
	const q = `DELETE FROM alert_rules WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(rows rowScanner) (*AlertRule, error) {
	var r AlertRule
	var cooldownSeconds int
	if err := rows.Scan(&r.ID, &r.Name, &r.Metric, &r.Op, &r.Threshold, &r.Severity, &cooldownSeconds, &r.Enabled); err != nil {
		return nil, fmt.Errorf("scan rule: %w", err)
	}
	r.Cooldown = time.Duration(cooldownSeconds) * time.Second
	return &r, nil
}
