package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	"github.com/zeewalex59-ux/shopelitesource/internal/inquiry"
	cartsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/cart"
	reviewsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/review"
)

func (h *handlers) listReviews(c *gin.Context) {
	reviews, err := h.deps.Reviews.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "results": reviews})
}

func (h *handlers) submitReview(c *gin.Context) {
	sess, _ := currentSession(c)
	var in reviewsvc.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	rv, err := h.deps.Reviews.Submit(c.Request.Context(), sess.User, c.Param("id"), in)
	if errors.Is(err, reviewsvc.ErrInvalidRating) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: "rating"})
		return
	}
	if err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

func (h *handlers) listFAQ(c *gin.Context) {
	table := h.deps.Chat.Table()
	faqs := table.FAQs
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		faqs = table.ByCategory(category)
	}
	c.JSON(http.StatusOK, gin.H{
		"welcome":    table.Welcome,
		"categories": table.Categories(),
		"faqs":       faqs,
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	reply, err := h.deps.Chat.Reply(req.Message)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, reply)
}

type loginRequest struct {
	AccessToken string `json:"accessToken"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AccessToken) == "" {
		badRequest(c, "accessToken is required")
		return
	}
	sess, err := h.deps.Sessions.Login(c.Request.Context(), req.AccessToken)
	if err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *handlers) logout(c *gin.Context) {
	sess, _ := currentSession(c)
	if err := h.deps.Sessions.Logout(c.Request.Context(), sess.Token); err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	sess, _ := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "expiresAt": sess.ExpiresAt})
}

type cartResponse struct {
	*domain.Cart
	WhatsAppLink string `json:"whatsappLink,omitempty"`
}

func (h *handlers) writeCart(c *gin.Context, cart *domain.Cart, err error) {
	switch {
	case errors.Is(err, cartsvc.ErrInvalidQuantity), errors.Is(err, cartsvc.ErrOutOfStock):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: matchedMessage(err, cartsvc.ErrInvalidQuantity, cartsvc.ErrOutOfStock)})
		return
	case err != nil:
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	out := cartResponse{Cart: cart}
	if len(cart.Items) > 0 {
		out.WhatsAppLink = inquiry.CartLink(h.deps.WhatsAppNumber, *cart)
	}
	c.JSON(http.StatusOK, out)
}

func userID(c *gin.Context) string {
	sess, _ := currentSession(c)
	return sess.User.ID
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.Carts.Get(c.Request.Context(), userID(c))
	h.writeCart(c, cart, err)
}

func (h *handlers) addCartItem(c *gin.Context) {
	var in cartsvc.AddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if strings.TrimSpace(in.ProductID) == "" {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "productId is required", Field: "productId"})
		return
	}
	cart, err := h.deps.Carts.AddItem(c.Request.Context(), userID(c), in)
	h.writeCart(c, cart, err)
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	cart, err := h.deps.Carts.UpdateQuantity(c.Request.Context(), userID(c), c.Param("lineId"), *req.Quantity)
	h.writeCart(c, cart, err)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	cart, err := h.deps.Carts.RemoveItem(c.Request.Context(), userID(c), c.Param("lineId"))
	h.writeCart(c, cart, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.Carts.Clear(c.Request.Context(), userID(c)); err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listWishlist(c *gin.Context) {
	items, err := h.deps.Wishlist.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "results": items})
}

func (h *handlers) toggleWishlist(c *gin.Context) {
	productID := c.Param("productId")
	in, err := h.deps.Wishlist.Toggle(c.Request.Context(), userID(c), productID)
	if err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": productID, "inWishlist": in})
}

func (h *handlers) removeWishlist(c *gin.Context) {
	if err := h.deps.Wishlist.Remove(c.Request.Context(), userID(c), c.Param("productId")); err != nil {
		writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}
