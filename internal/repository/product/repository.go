package product

import (
	"context"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// Repository reads and writes rows of the products table. Writes return the
// affected row as stored.
type Repository interface {
	List(ctx context.Context, category string) ([]domain.ProductRow, error)
	GetByID(ctx context.Context, id string) (*domain.ProductRow, error)
	Insert(ctx context.Context, fields domain.ProductFields) (*domain.ProductRow, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.ProductRow, error)
	Delete(ctx context.Context, id string) (*domain.ProductRow, error)
}
