package cart

import (
	"context"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

const lineColumns = `id::text, user_id, product_id::text, size, color, quantity, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	q := `
SELECT ` + lineColumns + `
FROM cart_lines
WHERE user_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CartLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *line)
	}
	return out, rows.Err()
}

func (r *postgresRepo) AddLine(ctx context.Context, in LineInput) (*domain.CartLine, error) {
	q := `
INSERT INTO cart_lines (user_id, product_id, size, color, quantity)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, product_id, size, color)
DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
RETURNING ` + lineColumns
	line, err := scanLine(r.pool.QueryRow(ctx, q, in.UserID, in.ProductID, in.Size, in.Color, in.Quantity))
	if err != nil {
		return nil, mapErr(err)
	}
	return line, nil
}

func (r *postgresRepo) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	q := `
UPDATE cart_lines SET quantity = $3
WHERE user_id = $1 AND id = $2
RETURNING ` + lineColumns
	line, err := scanLine(r.pool.QueryRow(ctx, q, userID, lineID, quantity))
	if err != nil {
		return nil, mapErr(err)
	}
	return line, nil
}

func (r *postgresRepo) RemoveLine(ctx context.Context, userID, lineID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND id = $2`, userID, lineID)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	return err
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation, pgerrcode.ForeignKeyViolation:
			// malformed id or product gone
			return domain.ErrNotFound
		}
	}
	return err
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var l domain.CartLine
	if err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Size, &l.Color, &l.Quantity, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
