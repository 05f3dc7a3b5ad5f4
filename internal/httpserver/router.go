package httpserver

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	"github.com/zeewalex59-ux/shopelitesource/internal/faq"
	"github.com/zeewalex59-ux/shopelitesource/internal/service/admin"
	cartsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/cart"
	reviewsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/review"
	"github.com/zeewalex59-ux/shopelitesource/internal/service/session"
)

// CatalogViews hands out live product lists per category filter.
type CatalogViews interface {
	Acquire(ctx context.Context, filter string) (*catalog.Store, error)
	Release(filter string)
}

type AdminService interface {
	Create(ctx context.Context, in admin.CreateInput) admin.Result
	Update(ctx context.Context, id string, in admin.UpdateInput) admin.Result
	Delete(ctx context.Context, id string) admin.Result
}

type SessionService interface {
	Login(ctx context.Context, providerToken string) (*session.Session, error)
	Logout(ctx context.Context, token string) error
	Resume(ctx context.Context, token string) (*session.Session, error)
}

type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, in cartsvc.AddInput) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, lineID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type WishlistService interface {
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	Toggle(ctx context.Context, userID, productID string) (bool, error)
	Remove(ctx context.Context, userID, productID string) error
}

type ReviewService interface {
	List(ctx context.Context, productID string) ([]domain.Review, error)
	Submit(ctx context.Context, user domain.User, productID string, in reviewsvc.SubmitInput) (*domain.Review, error)
}

type ChatBot interface {
	Reply(message string) (faq.Reply, error)
	Table() *faq.Table
}

// Deps are the services the router dispatches to.
type Deps struct {
	Catalog  CatalogViews
	Admin    AdminService
	Sessions SessionService
	Carts    CartService
	Wishlist WishlistService
	Reviews  ReviewService
	Chat     ChatBot

	WhatsAppNumber string
	UploadDir      string
	CORSOrigins    []string
	// StreamHeartbeat is the idle interval between keep-alive events on
	// product streams. Zero means 25s.
	StreamHeartbeat time.Duration
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("httpserver: catalog views required")
	case d.Admin == nil:
		return errors.New("httpserver: admin service required")
	case d.Sessions == nil:
		return errors.New("httpserver: session service required")
	case d.Carts == nil, d.Wishlist == nil, d.Reviews == nil:
		return errors.New("httpserver: storefront services required")
	case d.Chat == nil:
		return errors.New("httpserver: chat bot required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.StreamHeartbeat <= 0 {
		deps.StreamHeartbeat = 25 * time.Second
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), recovery(logger), cors.New(corsConfig(deps.CORSOrigins)))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if deps.UploadDir != "" {
		router.Static("/uploads", deps.UploadDir)
	}

	api := router.Group("/", sessionMiddleware(deps.Sessions, logger))

	api.GET("/products", h.listProducts)
	api.GET("/products/stream", h.streamProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/products/:id/inquiry", h.productInquiry)
	api.GET("/products/:id/reviews", h.listReviews)
	api.POST("/products/:id/reviews", requireUser(), h.submitReview)

	api.GET("/faq", h.listFAQ)
	api.POST("/chat", h.chat)

	api.POST("/auth/session", h.login)
	api.DELETE("/auth/session", requireUser(), h.logout)
	api.GET("/me", requireUser(), h.me)

	me := api.Group("/me", requireUser())
	me.GET("/cart", h.getCart)
	me.POST("/cart/items", h.addCartItem)
	me.PATCH("/cart/items/:lineId", h.updateCartItem)
	me.DELETE("/cart/items/:lineId", h.removeCartItem)
	me.DELETE("/cart", h.clearCart)
	me.GET("/wishlist", h.listWishlist)
	me.POST("/wishlist/:productId/toggle", h.toggleWishlist)
	me.DELETE("/wishlist/:productId", h.removeWishlist)

	adm := api.Group("/admin", requireUser(), requireAdmin())
	adm.POST("/products", h.createProduct)
	adm.PATCH("/products/:id", h.updateProduct)
	adm.DELETE("/products/:id", h.deleteProduct)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
