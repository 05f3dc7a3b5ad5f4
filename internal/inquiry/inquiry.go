// Package inquiry builds WhatsApp click-to-chat links for purchase requests.
package inquiry

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

const baseURL = "https://wa.me/"

// Link returns a wa.me link to number prefilled with text. Non-digits in
// number are dropped.
func Link(number, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	return baseURL + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// ProductMessage is the request text for a single product.
func ProductMessage(p domain.Product) string {
	var b strings.Builder
	b.WriteString("Hi! I'm interested in this product from Elite Source:\n\n")
	fmt.Fprintf(&b, "Product: %s\n", p.Name)
	fmt.Fprintf(&b, "Price: $%s\n", FormatPrice(p.Price))
	if p.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", strings.ToUpper(p.Category))
	}
	b.WriteString("\nCould you please provide more information about this item?")
	if p.Image != "" {
		fmt.Fprintf(&b, "\n\nProduct Image: %s", p.Image)
	}
	return b.String()
}

func ProductLink(number string, p domain.Product) string {
	return Link(number, ProductMessage(p))
}

// CartMessage lists every cart item with its variant and the total.
func CartMessage(c domain.Cart) string {
	var b strings.Builder
	b.WriteString("Hello, I want to request these items from Elite Source:\n")
	for _, it := range c.Items {
		fmt.Fprintf(&b, "\n- %s x%d", it.Product.Name, it.Quantity)
		var variant []string
		if it.Size != "" {
			variant = append(variant, "size "+it.Size)
		}
		if it.Color != "" {
			variant = append(variant, "color "+it.Color)
		}
		if len(variant) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(variant, ", "))
		}
		fmt.Fprintf(&b, ": $%s", FormatPrice(it.LineTotal))
	}
	fmt.Fprintf(&b, "\n\nTotal: $%s", FormatPrice(c.Total))
	return b.String()
}

func CartLink(number string, c domain.Cart) string {
	return Link(number, CartMessage(c))
}

// FormatPrice renders d with thousands separators and cents only when
// needed: 1250 -> "1,250", 99.5 -> "99.50".
func FormatPrice(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs()
	whole := d.Truncate(0)
	s := whole.String()
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if !d.Equal(whole) {
		frac := d.Sub(whole).StringFixed(2)
		out += strings.TrimPrefix(frac, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
