package wishlist

import (
	"context"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	const q = `
SELECT id::text, user_id, product_id::text, created_at
FROM wishlist_items
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WishlistItem
	for rows.Next() {
		var it domain.WishlistItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Add(ctx context.Context, userID, productID string) (*domain.WishlistItem, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const q = `
INSERT INTO wishlist_items (user_id, product_id)
VALUES ($1, $2)
ON CONFLICT (user_id, product_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id::text, user_id, product_id::text, created_at
`
	var it domain.WishlistItem
	if err := r.pool.QueryRow(ctx, q, userID, productID).Scan(&it.ID, &it.UserID, &it.ProductID, &it.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &it, nil
}

func (r *postgresRepo) Remove(ctx context.Context, userID, productID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation, pgerrcode.ForeignKeyViolation:
			return domain.ErrNotFound
		}
	}
	return err
}
