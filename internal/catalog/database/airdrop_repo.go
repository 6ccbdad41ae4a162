package database

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const airdropColumns = `id, title, slug, description, category, status, reward_amount,
	logo_url, website_url, starts_at, ends_at, created_at, updated_at`

func scanAirdrop(row pgx.Row) (*model.Airdrop, error) {
	var a model.Airdrop
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Description, &a.Category, &a.Status,
		&a.RewardAmount, &a.LogoURL, &a.WebsiteURL, &a.StartsAt, &a.EndsAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (d *Database) ListAirdrops(ctx context.Context, q *model.AirdropQuery) ([]model.Airdrop, error) {
	sql := `SELECT ` + airdropColumns + ` FROM airdrops WHERE 1=1`
	args := []any{}

	if q.Status != "" {
		sql += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, q.Status)
	}
	if q.Category != "" {
		sql += " AND category = $" + strconv.Itoa(len(args)+1)
		args = append(args, q.Category)
	}
	sql += " ORDER BY created_at DESC"
	if q.Limit > 0 {
		sql += " LIMIT $" + strconv.Itoa(len(args)+1)
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		sql += " OFFSET $" + strconv.Itoa(len(args)+1)
		args = append(args, q.Offset)
	}

	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Airdrop
	for rows.Next() {
		a, err := scanAirdrop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (d *Database) GetAirdrop(ctx context.Context, id string) (*model.Airdrop, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+airdropColumns+` FROM airdrops WHERE id = $1`, id)
	return scanAirdrop(row)
}

func (d *Database) GetAirdropBySlug(ctx context.Context, slug string) (*model.Airdrop, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+airdropColumns+` FROM airdrops WHERE slug = $1`, slug)
	return scanAirdrop(row)
}

func (d *Database) CreateAirdrop(ctx context.Context, a *model.Airdrop) error {
	const sql = `INSERT INTO airdrops (id, title, slug, description, category, status, reward_amount,
		logo_url, website_url, starts_at, ends_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := d.pool.Exec(ctx, sql, a.ID, a.Title, a.Slug, a.Description, a.Category, a.Status,
		a.RewardAmount, a.LogoURL, a.WebsiteURL, a.StartsAt, a.EndsAt, a.CreatedAt, a.UpdatedAt)
	return err
}

func (d *Database) UpdateAirdrop(ctx context.Context, a *model.Airdrop) error {
	const sql = `UPDATE airdrops SET title=$2, slug=$3, description=$4, category=$5, status=$6,
		reward_amount=$7, logo_url=$8, website_url=$9, starts_at=$10, ends_at=$11, updated_at=$12
		WHERE id = $1`
	tag, err := d.pool.Exec(ctx, sql, a.ID, a.Title, a.Slug, a.Description, a.Category, a.Status,
		a.RewardAmount, a.LogoURL, a.WebsiteURL, a.StartsAt, a.EndsAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteAirdrop(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM airdrops WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) ListTasks(ctx context.Context, airdropID string) ([]model.AirdropTask, error) {
	const sql = `SELECT id, airdrop_id, title, task_type, points, url, created_at
		FROM airdrop_tasks WHERE airdrop_id = $1 ORDER BY created_at ASC`
	rows, err := d.pool.Query(ctx, sql, airdropID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AirdropTask
	for rows.Next() {
		var t model.AirdropTask
		if err := rows.Scan(&t.ID, &t.AirdropID, &t.Title, &t.TaskType, &t.Points, &t.URL, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *Database) GetTask(ctx context.Context, id string) (*model.AirdropTask, error) {
	const sql = `SELECT id, airdrop_id, title, task_type, points, url, created_at
		FROM airdrop_tasks WHERE id = $1`
	var t model.AirdropTask
	err := d.pool.QueryRow(ctx, sql, id).Scan(&t.ID, &t.AirdropID, &t.Title, &t.TaskType, &t.Points, &t.URL, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (d *Database) CreateTask(ctx context.Context, t *model.AirdropTask) error {
	const sql = `INSERT INTO airdrop_tasks (id, airdrop_id, title, task_type, points, url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := d.pool.Exec(ctx, sql, t.ID, t.AirdropID, t.Title, t.TaskType, t.Points, t.URL, t.CreatedAt)
	return err
}

func (d *Database) DeleteTask(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM airdrop_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
