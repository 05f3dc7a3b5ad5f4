package httpserver

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	"github.com/zeewalex59-ux/shopelitesource/internal/inquiry"
)

func categoryParam(c *gin.Context) string {
	category := strings.TrimSpace(c.Query("category"))
	if catalog.IsAllCategories(category) {
		return catalog.AllCategories
	}
	return category
}

func (h *handlers) listProducts(c *gin.Context) {
	category := categoryParam(c)
	store, err := h.deps.Catalog.Acquire(c.Request.Context(), category)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "products unavailable"})
		return
	}
	defer h.deps.Catalog.Release(category)

	snap := store.Snapshot()
	if snap.LastError != nil {
		_ = c.Error(snap.LastError)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "products unavailable"})
		return
	}
	c.JSON(http.StatusOK, productListResponse{
		Category: category,
		Count:    len(snap.Products),
		Results:  toProductResponses(snap.Products),
	})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, ok := h.lookupProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *handlers) productInquiry(c *gin.Context) {
	p, ok := h.lookupProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"productId": p.ID,
		"message":   inquiry.ProductMessage(p),
		"url":       inquiry.ProductLink(h.deps.WhatsAppNumber, p),
	})
}

// streamProducts sends the filtered list as server-sent events: once on
// connect and again after every change.
func (h *handlers) streamProducts(c *gin.Context) {
	category := categoryParam(c)
	store, err := h.deps.Catalog.Acquire(c.Request.Context(), category)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "products unavailable"})
		return
	}
	defer h.deps.Catalog.Release(category)

	changed, cancel := store.Watch()
	defer cancel()
	heartbeat := time.NewTicker(h.deps.StreamHeartbeat)
	defer heartbeat.Stop()

	send := func() {
		snap := store.Snapshot()
		c.SSEvent("products", productListResponse{
			Category: category,
			Count:    len(snap.Products),
			Results:  toProductResponses(snap.Products),
		})
	}
	h.logger.Debug("http: product stream opened", zap.String("category", category))
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	send()
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-changed:
			if !ok {
				return false
			}
			send()
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
	h.logger.Debug("http: product stream closed", zap.String("category", category))
}

func (h *handlers) lookupProduct(c *gin.Context) (domain.Product, bool) {
	id := strings.TrimSpace(c.Param("id"))
	store, err := h.deps.Catalog.Acquire(c.Request.Context(), catalog.AllCategories)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "products unavailable"})
		return domain.Product{}, false
	}
	defer h.deps.Catalog.Release(catalog.AllCategories)
	p, ok := store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
		return domain.Product{}, false
	}
	return p, true
}
