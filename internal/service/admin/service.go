// Package admin validates and submits catalog mutations made by the store
// administrator.
package admin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	"github.com/zeewalex59-ux/shopelitesource/internal/storage"
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrPromoPrice rejects a promotion whose original price does not exceed the
// current price.
var ErrPromoPrice = &ValidationError{Field: "originalPrice", Message: "original price must be higher than promo price"}

// Catalog applies mutations and reconciles the live product list.
type Catalog interface {
	AddProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Reader loads the stored row an update is merged onto.
type Reader interface {
	GetByID(ctx context.Context, id string) (*domain.ProductRow, error)
}

// Upload is an image file submitted with a create or update.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type CreateInput struct {
	Name                string           `json:"name"`
	Price               decimal.Decimal  `json:"price"`
	OriginalPrice       *decimal.Decimal `json:"originalPrice"`
	IsPromo             bool             `json:"isPromo"`
	Category            string           `json:"category"`
	Image               string           `json:"image"`
	Description         string           `json:"description"`
	DetailedDescription string           `json:"detailedDescription"`
	Specifications      []string         `json:"specifications"`
	Materials           string           `json:"materials"`
	CareInstructions    string           `json:"careInstructions"`
	Brand               string           `json:"brand"`
	SKU                 string           `json:"sku"`
	// InStock defaults to true when omitted.
	InStock  *bool `json:"inStock"`
	Featured bool  `json:"featured"`

	ImageFile *Upload `json:"-"`
}

type UpdateInput struct {
	Patch     domain.ProductPatch
	ImageFile *Upload
}

// Result is the outcome of a mutation. Failures carry the error instead of
// returning it; Field is set for validation failures.
type Result struct {
	Success         bool
	Product         *domain.Product
	DiscountPercent int
	Error           error
	Field           string
}

func failure(err error) Result {
	if errors.Is(err, domain.ErrPromoPrice) {
		// the stored row changed between the merged check and the write
		err = ErrPromoPrice
	}
	res := Result{Error: err}
	var verr *ValidationError
	if errors.As(err, &verr) {
		res.Field = verr.Field
	}
	return res
}

func success(p *domain.Product) Result {
	res := Result{Success: true, Product: p}
	if p != nil && p.OriginalPrice != nil {
		res.DiscountPercent = DiscountPercent(p.Price, *p.OriginalPrice)
	}
	return res
}

type Service struct {
	catalog Catalog
	reader  Reader
	storage storage.Storage
	logger  *zap.Logger
}

func New(cat Catalog, reader Reader, st storage.Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: cat, reader: reader, storage: st, logger: logger}
}

// Create validates in, uploads the image when one is attached, then inserts.
func (s *Service) Create(ctx context.Context, in CreateInput) Result {
	fields, err := normalizeCreate(in)
	if err != nil {
		return failure(err)
	}
	if in.ImageFile != nil {
		url, err := s.upload(ctx, in.ImageFile)
		if err != nil {
			return failure(err)
		}
		fields.Image = url
	}
	p, err := s.catalog.AddProduct(ctx, fields)
	if err != nil {
		s.logger.Warn("admin: create failed", zap.String("name", fields.Name), zap.Error(err))
		return failure(errors.Wrap(err, "create product"))
	}
	s.logger.Info("admin: product created", zap.String("id", p.ID), zap.String("category", p.Category))
	return success(p)
}

// Update validates the patch against the stored product, uploads a new image
// when one is attached, then applies the patch.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) Result {
	if strings.TrimSpace(id) == "" {
		return failure(&ValidationError{Field: "id", Message: "product id is required"})
	}
	patch, err := normalizePatch(in.Patch)
	if err != nil {
		return failure(err)
	}
	if patch.Price != nil || patch.OriginalPrice != nil || patch.IsPromo != nil {
		row, err := s.reader.GetByID(ctx, id)
		if err != nil {
			return failure(errors.Wrap(err, "load product"))
		}
		current := catalog.RowToProduct(*row)
		if err := checkMerged(current, patch); err != nil {
			return failure(err)
		}
	}
	if in.ImageFile != nil {
		url, err := s.upload(ctx, in.ImageFile)
		if err != nil {
			return failure(err)
		}
		patch.Image = &url
	}
	if patch.Empty() {
		return failure(&ValidationError{Field: "patch", Message: "nothing to update"})
	}
	p, err := s.catalog.UpdateProduct(ctx, id, patch)
	if err != nil {
		s.logger.Warn("admin: update failed", zap.String("id", id), zap.Error(err))
		return failure(errors.Wrap(err, "update product"))
	}
	s.logger.Info("admin: product updated", zap.String("id", id))
	return success(p)
}

func (s *Service) Delete(ctx context.Context, id string) Result {
	if strings.TrimSpace(id) == "" {
		return failure(&ValidationError{Field: "id", Message: "product id is required"})
	}
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		s.logger.Warn("admin: delete failed", zap.String("id", id), zap.Error(err))
		return failure(errors.Wrap(err, "delete product"))
	}
	s.logger.Info("admin: product deleted", zap.String("id", id))
	return Result{Success: true}
}

func (s *Service) upload(ctx context.Context, f *Upload) (string, error) {
	if s.storage == nil {
		return "", errors.New("image storage not configured")
	}
	url, err := s.storage.Upload(ctx, f.Name, f.ContentType, f.Body)
	if err != nil {
		s.logger.Warn("admin: image upload failed", zap.String("file", f.Name), zap.Error(err))
		return "", errors.Wrap(err, "upload image")
	}
	return url, nil
}

// DiscountPercent is the whole-number markdown from original to price.
func DiscountPercent(price, original decimal.Decimal) int {
	if !original.IsPositive() || original.LessThanOrEqual(price) {
		return 0
	}
	return int(original.Sub(price).Div(original).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
