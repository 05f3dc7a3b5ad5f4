package domain

import "github.com/pkg/errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was hit.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the session lacks the required capability.
	ErrForbidden = errors.New("forbidden")
	// ErrPromoPrice indicates a promo row whose original price does not
	// exceed its price.
	ErrPromoPrice = errors.New("promo price not below original price")
)
