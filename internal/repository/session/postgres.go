package session

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

func (r *postgresRepo) Create(ctx context.Context, rec domain.SessionRecord) error {
	const q = `
INSERT INTO sessions (token, user_id, email, display_name, email_verified, is_admin, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	u := rec.User
	_, err := r.pool.Exec(ctx, q, rec.Token, u.ID, u.Email, u.DisplayName, u.EmailVerified, u.IsAdmin, rec.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, token string) (*domain.SessionRecord, error) {
	const q = `
SELECT token, user_id, email, display_name, email_verified, is_admin, created_at, expires_at
FROM sessions
WHERE token = $1
`
	var out domain.SessionRecord
	if err := r.pool.QueryRow(ctx, q, token).Scan(
		&out.Token,
		&out.User.ID,
		&out.User.Email,
		&out.User.DisplayName,
		&out.User.EmailVerified,
		&out.User.IsAdmin,
		&out.CreatedAt,
		&out.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, token string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
