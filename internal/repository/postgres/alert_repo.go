package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vigilhq/vigil/internal/domain/alert"
)

var _ alert.Store = (*AlertRepo)(nil)

// AlertRepo backs the append-only alert log with a Postgres table. The id
// sequence is what makes concurrent appends safe: the database hands out
// ids, not the application.
type AlertRepo struct {
	db *DB
}

func NewAlertRepo(db *DB) *AlertRepo { return &AlertRepo{db: db} }

const (
	qAlertInsert = `
INSERT INTO alerts (title, message, priority)
VALUES ($1, $2, $3)
RETURNING id, title, message, priority, created_at;`

	qAlertList = `
SELECT id, title, message, priority, created_at
FROM alerts
ORDER BY id DESC;`

	qAlertListBefore = `
SELECT id, title, message, priority, created_at
FROM alerts
WHERE id < $1
ORDER BY id DESC
LIMIT $2;`
)

func scanAlert(row pgx.Row, a *alert.Alert) error {
	var priority string
	if err := row.Scan(&a.ID, &a.Title, &a.Message, &priority, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan alert: %w", err)
	}
	a.Priority = alert.Priority(priority)
	return nil
}

func (r *AlertRepo) Append(ctx context.Context, c alert.Candidate) (*alert.Alert, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	c = c.Normalize()
	var a alert.Alert
	row := r.db.Pool.QueryRow(ctx, qAlertInsert, c.Title, c.Message, c.Priority)
	if err := scanAlert(row, &a); err != nil {
		return nil, fmt.Errorf("append alert: %w", err)
	}
	return &a, nil
}

func (r *AlertRepo) List(ctx context.Context) ([]*alert.Alert, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qAlertList)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (r *AlertRepo) ListBefore(ctx context.Context, beforeID int64, limit int) ([]*alert.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qAlertListBefore, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts before %d: %w", beforeID, err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func collectAlerts(rows pgx.Rows) ([]*alert.Alert, error) {
	var out []*alert.Alert
	for rows.Next() {
		var a alert.Alert
		if err := scanAlert(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
