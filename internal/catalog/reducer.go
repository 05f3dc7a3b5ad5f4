package catalog

import (
	"strings"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// AllCategories is the filter value meaning "no category filter".
const AllCategories = "ALL COLLECTIONS"

type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
	// EventResync asks consumers to reload; events may have been missed.
	EventResync EventKind = "RESYNC"
)

// Event is a row-level change. Insert and update carry the new row; delete
// only needs OldID.
type Event struct {
	Kind  EventKind
	Row   domain.ProductRow
	OldID string
}

// ID returns the product id the event refers to.
func (e Event) ID() string {
	if e.Kind == EventDelete && e.OldID != "" {
		return e.OldID
	}
	return e.Row.ID
}

// State is the local view of a category-filtered product list.
type State struct {
	Filter   string
	Products []domain.Product
}

// IsAllCategories reports whether filter disables category filtering.
func IsAllCategories(filter string) bool {
	f := strings.TrimSpace(filter)
	return f == "" || strings.EqualFold(f, AllCategories) || strings.EqualFold(f, "all")
}

// MatchesCategory compares a product category against the filter. Matching is
// exact and case-insensitive; a category is a single label.
func MatchesCategory(filter, category string) bool {
	if IsAllCategories(filter) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(filter), strings.TrimSpace(category))
}

// Apply returns the state after ev. The input state is not modified, and
// applying the same event twice gives the same result as applying it once.
func Apply(s State, ev Event) State {
	if ev.ID() == "" {
		return s
	}
	switch ev.Kind {
	case EventInsert:
		if !MatchesCategory(s.Filter, ev.Row.CategoryValue()) {
			return s
		}
		if indexOf(s.Products, ev.Row.ID) >= 0 {
			return s
		}
		return State{Filter: s.Filter, Products: prepend(s.Products, RowToProduct(ev.Row))}
	case EventUpdate:
		p := RowToProduct(ev.Row)
		idx := indexOf(s.Products, p.ID)
		if !MatchesCategory(s.Filter, p.Category) {
			if idx < 0 {
				return s
			}
			return State{Filter: s.Filter, Products: without(s.Products, idx)}
		}
		if idx < 0 {
			return State{Filter: s.Filter, Products: prepend(s.Products, p)}
		}
		next := clone(s.Products)
		next[idx] = p
		return State{Filter: s.Filter, Products: next}
	case EventDelete:
		idx := indexOf(s.Products, ev.ID())
		if idx < 0 {
			return s
		}
		return State{Filter: s.Filter, Products: without(s.Products, idx)}
	default:
		return s
	}
}

func indexOf(products []domain.Product, id string) int {
	if id == "" {
		return -1
	}
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend(products []domain.Product, p domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products)+1)
	out = append(out, p)
	return append(out, products...)
}

func without(products []domain.Product, idx int) []domain.Product {
	out := make([]domain.Product, 0, len(products)-1)
	out = append(out, products[:idx]...)
	return append(out, products[idx+1:]...)
}

func clone(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}
