package review

import (
	"context"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

const columns = `id::text, product_id::text, user_id, user_name, rating, comment, verified, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	q := `
SELECT ` + columns + `
FROM reviews
WHERE product_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) Create(ctx context.Context, in domain.Review) (*domain.Review, error) {
	q := `
INSERT INTO reviews (product_id, user_id, user_name, rating, comment, verified)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + columns
	rv, err := scanReview(r.pool.QueryRow(ctx, q, in.ProductID, in.UserID, in.UserName, in.Rating, in.Comment, in.Verified))
	if err != nil {
		return nil, mapErr(err)
	}
	return rv, nil
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

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.Verified, &rv.CreatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}
