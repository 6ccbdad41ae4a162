package database

import (
	"context"

	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
)

func (d *Database) InsertAudit(ctx context.Context, rec *model.AuditRecord) error {
	const sql = `INSERT INTO admin_audit_log (id, action_type, target_type, target_id, old_data, new_data, actor_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := d.pool.Exec(ctx, sql, rec.ID, rec.ActionType, rec.TargetType, rec.TargetID,
		rec.OldData, rec.NewData, rec.ActorID, rec.CreatedAt)
	return err
}

func (d *Database) ListAudit(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const sql = `SELECT id, action_type, target_type, target_id, old_data, new_data, actor_id, created_at
		FROM admin_audit_log ORDER BY created_at DESC LIMIT $1`
	rows, err := d.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditRecord
	for rows.Next() {
		var rec model.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.ActionType, &rec.TargetType, &rec.TargetID,
			&rec.OldData, &rec.NewData, &rec.ActorID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
