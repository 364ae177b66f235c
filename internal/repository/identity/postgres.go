package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Save(ctx context.Context, id string) error {
	const q = `
INSERT INTO device_identities (id)
VALUES ($1)
ON CONFLICT (id) DO UPDATE SET last_seen_at = now()
`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *postgresRepo) Touch(ctx context.Context, id string) error {
	const q = `
UPDATE device_identities
SET last_seen_at = now()
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	// An identity we never issued still gets recorded; carts keyed by it are
	// valid as far as the backend is concerned.
	if tag.RowsAffected() == 0 {
		return r.Save(ctx, id)
	}
	return nil
}

func (r *postgresRepo) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT 1 FROM device_identities WHERE id = $1`
	var one int
	if err := r.pool.QueryRow(ctx, q, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
