package wishlist

import (
	"context"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	// Add is a no-op when the product is already listed.
	Add(ctx context.Context, userID, productID string) (*domain.WishlistItem, error)
	Remove(ctx context.Context, userID, productID string) error
}
