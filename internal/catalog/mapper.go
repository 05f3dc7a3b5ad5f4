package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// RowToProduct maps a stored row onto the storefront product. It never fails:
// missing columns fall back to their defaults.
func RowToProduct(row domain.ProductRow) domain.Product {
	p := domain.Product{
		ID:                  row.ID,
		Name:                str(row.Name),
		Price:               decimal.Zero,
		IsPromo:             flag(row.IsPromo, false),
		Category:            str(row.Category),
		Image:               str(row.Image),
		Description:         str(row.Description),
		DetailedDescription: str(row.DetailedDescription),
		Specifications:      DecodeSpecifications(row.Specifications),
		Materials:           str(row.Materials),
		CareInstructions:    str(row.CareInstructions),
		Brand:               str(row.Brand),
		SKU:                 str(row.SKU),
		InStock:             flag(row.InStock, true),
		Featured:            flag(row.Featured, false),
		Reviews:             []domain.Review{},
		CreatedAt:           row.CreatedAt,
	}
	if row.Price != nil {
		p.Price = *row.Price
	}
	if row.OriginalPrice != nil {
		orig := *row.OriginalPrice
		p.OriginalPrice = &orig
	}
	return p
}

// RowsToProducts maps rows preserving order.
func RowsToProducts(rows []domain.ProductRow) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, RowToProduct(r))
	}
	return out
}

// DecodeSpecifications accepts a JSON array of strings or a JSON string that
// itself holds such an array. Anything else yields nil.
func DecodeSpecifications(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '[':
		var specs []string
		if err := json.Unmarshal(raw, &specs); err != nil {
			return nil
		}
		return specs
	case '"':
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil
		}
		var specs []string
		if err := json.Unmarshal([]byte(encoded), &specs); err != nil {
			return nil
		}
		return specs
	default:
		return nil
	}
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
