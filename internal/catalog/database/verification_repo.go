package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
)

const verificationColumns = `id, airdrop_id, task_id, user_id, status, proof_url, created_at, reviewed_at`

func scanVerification(row pgx.Row) (*model.Verification, error) {
	var v model.Verification
	err := row.Scan(&v.ID, &v.AirdropID, &v.TaskID, &v.UserID, &v.Status, &v.ProofURL, &v.CreatedAt, &v.ReviewedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (d *Database) CreateVerification(ctx context.Context, v *model.Verification) error {
	const sql = `INSERT INTO airdrop_verifications (id, airdrop_id, task_id, user_id, status, proof_url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := d.pool.Exec(ctx, sql, v.ID, v.AirdropID, v.TaskID, v.UserID, v.Status, v.ProofURL, v.CreatedAt)
	return err
}

func (d *Database) GetVerification(ctx context.Context, id string) (*model.Verification, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+verificationColumns+` FROM airdrop_verifications WHERE id = $1`, id)
	return scanVerification(row)
}

func (d *Database) ListVerifications(ctx context.Context, status string) ([]model.Verification, error) {
	sql := `SELECT ` + verificationColumns + ` FROM airdrop_verifications`
	args := []any{}
	if status != "" {
		sql += ` WHERE status = $1`
		args = append(args, status)
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (d *Database) UpdateVerificationStatus(ctx context.Context, id, status string, reviewedAt time.Time) error {
	const sql = `UPDATE airdrop_verifications SET status = $2, reviewed_at = $3 WHERE id = $1`
	tag, err := d.pool.Exec(ctx, sql, id, status, reviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) GetReward(ctx context.Context, userID string) (*model.UserReward, error) {
	const sql = `SELECT user_id, total_points, updated_at FROM user_rewards WHERE user_id = $1`
	var r model.UserReward
	err := d.pool.QueryRow(ctx, sql, userID).Scan(&r.UserID, &r.TotalPoints, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// AddPoints upserts the user's running total and returns the new total.
func (d *Database) AddPoints(ctx context.Context, userID string, points int, at time.Time) (*model.UserReward, error) {
	const sql = `INSERT INTO user_rewards (user_id, total_points, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET total_points = user_rewards.total_points + $2, updated_at = $3
		RETURNING user_id, total_points, updated_at`
	var r model.UserReward
	if err := d.pool.QueryRow(ctx, sql, userID, points, at).Scan(&r.UserID, &r.TotalPoints, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
