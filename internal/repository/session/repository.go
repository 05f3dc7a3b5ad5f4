package session

import (
	"context"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, rec domain.SessionRecord) error
	Get(ctx context.Context, token string) (*domain.SessionRecord, error)
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes sessions that expired before now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
