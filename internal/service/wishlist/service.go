package wishlist

import (
	"context"

	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	wishlistrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/wishlist"
)

type Service struct {
	repo wishlistrepo.Repository
}

func New(repo wishlistrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return items, nil
}

// Toggle adds the product when absent and removes it when present. It
// reports whether the product is listed afterwards.
func (s *Service) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	err := s.repo.Remove(ctx, userID, productID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, errors.Wrap(err, "remove from wishlist")
	}
	if _, err := s.repo.Add(ctx, userID, productID); err != nil {
		return false, errors.Wrap(err, "add to wishlist")
	}
	return true, nil
}

func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	return errors.Wrap(s.repo.Remove(ctx, userID, productID), "remove from wishlist")
}
