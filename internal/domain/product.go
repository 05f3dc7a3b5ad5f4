package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RowSchemaVersion identifies the products table layout ProductRow mirrors.
const RowSchemaVersion = 1

// ProductRow is a products table row as stored, before mapping. Nullable
// columns are pointers; specifications keeps whatever JSON the column holds.
type ProductRow struct {
	ID                  string           `json:"id"`
	Name                *string          `json:"name"`
	Price               *decimal.Decimal `json:"price"`
	OriginalPrice       *decimal.Decimal `json:"original_price"`
	IsPromo             *bool            `json:"is_promo"`
	Category            *string          `json:"category"`
	Image               *string          `json:"image"`
	Description         *string          `json:"description"`
	DetailedDescription *string          `json:"detailed_description"`
	Specifications      json.RawMessage  `json:"specifications"`
	Materials           *string          `json:"materials"`
	CareInstructions    *string          `json:"care_instructions"`
	Brand               *string          `json:"brand"`
	SKU                 *string          `json:"sku"`
	InStock             *bool            `json:"in_stock"`
	Featured            *bool            `json:"featured"`
	CreatedAt           time.Time        `json:"created_at"`
}

// CategoryValue returns the row category or "" when null.
func (r ProductRow) CategoryValue() string {
	if r.Category == nil {
		return ""
	}
	return *r.Category
}

// Product is the storefront view of a catalog item.
type Product struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Price               decimal.Decimal  `json:"price"`
	OriginalPrice       *decimal.Decimal `json:"originalPrice,omitempty"`
	IsPromo             bool             `json:"isPromo"`
	Category            string           `json:"category"`
	Image               string           `json:"image"`
	Description         string           `json:"description"`
	DetailedDescription string           `json:"detailedDescription,omitempty"`
	Specifications      []string         `json:"specifications,omitempty"`
	Materials           string           `json:"materials,omitempty"`
	CareInstructions    string           `json:"careInstructions,omitempty"`
	Brand               string           `json:"brand,omitempty"`
	SKU                 string           `json:"sku,omitempty"`
	InStock             bool             `json:"inStock"`
	Featured            bool             `json:"featured"`
	Reviews             []Review         `json:"reviews"`
	CreatedAt           time.Time        `json:"createdAt"`
}

// ProductFields carries column values for an insert. Zero values are
// written as-is; optional text left empty is stored as NULL.
type ProductFields struct {
	Name                string
	Price               decimal.Decimal
	OriginalPrice       *decimal.Decimal
	IsPromo             bool
	Category            string
	Image               string
	Description         string
	DetailedDescription string
	Specifications      []string
	Materials           string
	CareInstructions    string
	Brand               string
	SKU                 string
	InStock             bool
	Featured            bool
}

// ProductPatch is a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name                *string          `json:"name,omitempty"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice       *decimal.Decimal `json:"originalPrice,omitempty"`
	IsPromo             *bool            `json:"isPromo,omitempty"`
	Category            *string          `json:"category,omitempty"`
	Image               *string          `json:"image,omitempty"`
	Description         *string          `json:"description,omitempty"`
	DetailedDescription *string          `json:"detailedDescription,omitempty"`
	Specifications      *[]string        `json:"specifications,omitempty"`
	Materials           *string          `json:"materials,omitempty"`
	CareInstructions    *string          `json:"careInstructions,omitempty"`
	Brand               *string          `json:"brand,omitempty"`
	SKU                 *string          `json:"sku,omitempty"`
	InStock             *bool            `json:"inStock,omitempty"`
	Featured            *bool            `json:"featured,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p == ProductPatch{}
}
