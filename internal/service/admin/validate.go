package admin

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

func nonNegative(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return &ValidationError{Field: field, Message: field + " must not be negative"}
	}
	return nil
}

// hasOriginal treats a zero original price as absent.
func hasOriginal(v *decimal.Decimal) bool {
	return v != nil && !v.IsZero()
}

func checkPromo(isPromo bool, price decimal.Decimal, original *decimal.Decimal) error {
	if isPromo && hasOriginal(original) && original.LessThanOrEqual(price) {
		return ErrPromoPrice
	}
	return nil
}

func trimSpecs(specs []string) []string {
	if specs == nil {
		return nil
	}
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeCreate(in CreateInput) (domain.ProductFields, error) {
	if err := required("name", in.Name); err != nil {
		return domain.ProductFields{}, err
	}
	if err := required("description", in.Description); err != nil {
		return domain.ProductFields{}, err
	}
	if err := nonNegative("price", &in.Price); err != nil {
		return domain.ProductFields{}, err
	}
	if err := nonNegative("originalPrice", in.OriginalPrice); err != nil {
		return domain.ProductFields{}, err
	}
	if err := checkPromo(in.IsPromo, in.Price, in.OriginalPrice); err != nil {
		return domain.ProductFields{}, err
	}

	var original *decimal.Decimal
	if in.IsPromo && hasOriginal(in.OriginalPrice) {
		v := *in.OriginalPrice
		original = &v
	}
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}
	return domain.ProductFields{
		Name:                strings.TrimSpace(in.Name),
		Price:               in.Price,
		OriginalPrice:       original,
		IsPromo:             in.IsPromo,
		Category:            strings.TrimSpace(in.Category),
		Image:               strings.TrimSpace(in.Image),
		Description:         strings.TrimSpace(in.Description),
		DetailedDescription: strings.TrimSpace(in.DetailedDescription),
		Specifications:      trimSpecs(in.Specifications),
		Materials:           strings.TrimSpace(in.Materials),
		CareInstructions:    strings.TrimSpace(in.CareInstructions),
		Brand:               strings.TrimSpace(in.Brand),
		SKU:                 strings.TrimSpace(in.SKU),
		InStock:             inStock,
		Featured:            in.Featured,
	}, nil
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func normalizePatch(p domain.ProductPatch) (domain.ProductPatch, error) {
	if p.Name != nil {
		if err := required("name", *p.Name); err != nil {
			return p, err
		}
	}
	if p.Description != nil {
		if err := required("description", *p.Description); err != nil {
			return p, err
		}
	}
	if err := nonNegative("price", p.Price); err != nil {
		return p, err
	}
	if err := nonNegative("originalPrice", p.OriginalPrice); err != nil {
		return p, err
	}
	// A patch carrying all three pricing fields is decidable on its own.
	if p.Price != nil && p.IsPromo != nil {
		if err := checkPromo(*p.IsPromo, *p.Price, p.OriginalPrice); err != nil {
			return p, err
		}
	}

	out := p
	out.Name = trimPtr(p.Name)
	out.Category = trimPtr(p.Category)
	out.Image = trimPtr(p.Image)
	out.Description = trimPtr(p.Description)
	out.DetailedDescription = trimPtr(p.DetailedDescription)
	out.Materials = trimPtr(p.Materials)
	out.CareInstructions = trimPtr(p.CareInstructions)
	out.Brand = trimPtr(p.Brand)
	out.SKU = trimPtr(p.SKU)
	if p.Specifications != nil {
		specs := trimSpecs(*p.Specifications)
		out.Specifications = &specs
	}
	return out, nil
}

// checkMerged applies the promo rule to the product as it would be after
// the patch.
func checkMerged(current domain.Product, p domain.ProductPatch) error {
	price := current.Price
	if p.Price != nil {
		price = *p.Price
	}
	original := current.OriginalPrice
	if p.OriginalPrice != nil {
		original = p.OriginalPrice
	}
	isPromo := current.IsPromo
	if p.IsPromo != nil {
		isPromo = *p.IsPromo
	}
	return checkPromo(isPromo, price, original)
}
