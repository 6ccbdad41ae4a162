package monitor

import (
	"context"
	"fmt"

	adb "github.com/huntu09/airdropshunter-sub001/internal/alerting/database"
)

// PgHistory appends emitted alerts to the alert_history table.
type PgHistory struct {
	DB *adb.Database
}

func NewPgHistory(db *adb.Database) *PgHistory { return &PgHistory{DB: db} }

func (h *PgHistory) InsertAlert(ctx context.Context, a *Alert) error {
	if h.DB == nil {
		return nil
	}
	const q = `
	INSERT INTO alert_history(id, rule_id, severity, title, message, created_at, resolved)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO NOTHING
	`
	if _, err := h.DB.ExecContext(ctx, q, a.ID, a.RuleID, a.Severity, a.Title, a.Message, a.Timestamp, a.Resolved); err != nil {
		return fmt.Errorf("insert alert history: %w", err)
	}
	return nil
}
