package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	"github.com/zeewalex59-ux/shopelitesource/internal/service/admin"
)

func init() {
	// Prices go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type productResponse struct {
	domain.Product
	DiscountPercent int `json:"discountPercent,omitempty"`
}

func toProductResponse(p domain.Product) productResponse {
	out := productResponse{Product: p}
	if p.IsPromo && p.OriginalPrice != nil {
		out.DiscountPercent = admin.DiscountPercent(p.Price, *p.OriginalPrice)
	}
	return out
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

type productListResponse struct {
	Category string            `json:"category"`
	Count    int               `json:"count"`
	Results  []productResponse `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps domain errors to status codes. Unrecognized errors become
// fallback.
func writeError(c *gin.Context, err error, fallback int) {
	status := fallback
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}
	_ = c.Error(err)
	c.JSON(status, errorResponse{Error: publicMessage(err, status)})
}

func publicMessage(err error, status int) string {
	switch status {
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "already exists"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	}
	if status >= http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// matchedMessage returns the message of the first target err matches, so
// wrap context stays out of client responses.
func matchedMessage(err error, targets ...error) string {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
