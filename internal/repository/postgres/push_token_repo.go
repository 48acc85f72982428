package postgres

import (
	"context"
	"fmt"

	"github.com/vigilhq/vigil/internal/domain/pushtoken"
)

var _ pushtoken.Registry = (*PushTokenRepo)(nil)

type PushTokenRepo struct {
	db *DB
}

func NewPushTokenRepo(db *DB) *PushTokenRepo { return &PushTokenRepo{db: db} }

const (
	qTokenUpsert = `
INSERT INTO push_tokens (user_id, token, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE
SET token = EXCLUDED.token, updated_at = NOW();`

	// Users sharing a device register the same token; DISTINCT keeps the
	// dispatcher from notifying that device twice.
	qTokenAll = `SELECT DISTINCT token FROM push_tokens;`

	qTokenRemove = `DELETE FROM push_tokens WHERE token = ANY($1);`
)

func (r *PushTokenRepo) Register(ctx context.Context, userID int64, token string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qTokenUpsert, userID, token); err != nil {
		return fmt.Errorf("upsert push token: %w", err)
	}
	return nil
}

func (r *PushTokenRepo) AllTokens(ctx context.Context) ([]string, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qTokenAll)
	if err != nil {
		return nil, fmt.Errorf("query push tokens: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan push token: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PushTokenRepo) Remove(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qTokenRemove, tokens); err != nil {
		return fmt.Errorf("remove push tokens: %w", err)
	}
	return nil
}
