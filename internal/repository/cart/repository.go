package cart

import (
	"context"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// LineInput identifies a cart line by product and variant.
type LineInput struct {
	UserID    string
	ProductID string
	Size      string
	Color     string
	Quantity  int
}

type Repository interface {
	Lines(ctx context.Context, userID string) ([]domain.CartLine, error)
	// AddLine adds quantity to the line matching product, size and color,
	// creating it when absent.
	AddLine(ctx context.Context, in LineInput) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error)
	RemoveLine(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}
