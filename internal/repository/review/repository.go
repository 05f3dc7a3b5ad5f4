package review

import (
	"context"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

type Repository interface {
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
	Create(ctx context.Context, r domain.Review) (*domain.Review, error)
}
