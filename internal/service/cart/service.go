package cart

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	cartrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/cart"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrOutOfStock      = errors.New("product is out of stock")
)

type Service struct {
	repo     cartRepo
	products productReader
	cache    ProductCache
}

type cartRepo interface {
	Lines(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddLine(ctx context.Context, in cartrepo.LineInput) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error)
	RemoveLine(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

type productReader interface {
	GetByID(ctx context.Context, id string) (*domain.ProductRow, error)
}

// ProductCache answers product lookups from memory, such as a loaded
// all-products catalog store.
type ProductCache interface {
	Get(id string) (domain.Product, bool)
}

func New(repo cartrepo.Repository, products productReader) *Service {
	return &Service{repo: repo, products: products}
}

// WithCache makes Get price lines from c, reading the repository only for
// products c does not hold.
func (s *Service) WithCache(c ProductCache) *Service {
	s.cache = c
	return s
}

func (s *Service) product(ctx context.Context, id string) (domain.Product, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(id); ok {
			return p, nil
		}
	}
	row, err := s.products.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return catalog.RowToProduct(*row), nil
}

type AddInput struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// Get returns the user's cart priced at current product prices.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart lines")
	}
	cart := &domain.Cart{UserID: userID, Items: []domain.CartItem{}, Total: decimal.Zero}
	for _, line := range lines {
		p, err := s.product(ctx, line.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "load cart product")
		}
		item := domain.CartItem{CartLine: line, Product: p}
		item.LineTotal = item.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cart.Items = append(cart.Items, item)
		cart.Total = cart.Total.Add(item.LineTotal)
		cart.Count += line.Quantity
	}
	return cart, nil
}

// AddItem adds quantity of a product variant, merging with an existing line.
func (s *Service) AddItem(ctx context.Context, userID string, in AddInput) (*domain.Cart, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, errors.Wrap(domain.ErrNotFound, "product id required")
	}
	row, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "load product")
	}
	if !catalog.RowToProduct(*row).InStock {
		return nil, ErrOutOfStock
	}
	if _, err := s.repo.AddLine(ctx, cartrepo.LineInput{
		UserID:    userID,
		ProductID: productID,
		Size:      strings.TrimSpace(in.Size),
		Color:     strings.TrimSpace(in.Color),
		Quantity:  in.Quantity,
	}); err != nil {
		return nil, errors.Wrap(err, "add cart line")
	}
	return s.Get(ctx, userID)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, lineID)
	}
	if _, err := s.repo.SetQuantity(ctx, userID, lineID, quantity); err != nil {
		return nil, errors.Wrap(err, "update cart line")
	}
	return s.Get(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) (*domain.Cart, error) {
	if err := s.repo.RemoveLine(ctx, userID, lineID); err != nil {
		return nil, errors.Wrap(err, "remove cart line")
	}
	return s.Get(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return errors.Wrap(s.repo.Clear(ctx, userID), "clear cart")
}
