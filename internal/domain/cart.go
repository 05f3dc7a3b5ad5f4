package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	ProductID string    `json:"productId"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartItem is a cart line joined with the current product.
type CartItem struct {
	CartLine
	Product   Product         `json:"product"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Cart struct {
	UserID string          `json:"userId"`
	Items  []CartItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

type WishlistItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}
