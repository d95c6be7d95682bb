package http

import (
	"net/http"

	"github.com/agrikart/storefront/internal/adapter/http/middleware"
	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/agrikart/storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	carts usecase.CartStore
}

func NewCartHandler(carts usecase.CartStore) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get handles GET /v1/cart.
func (h *CartHandler) Get(c *gin.Context) {
	items, err := h.carts.Items(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "could not load cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"subtotal": domain.CartSubtotal(items),
	})
}

type syncCartReq struct {
	Items []domain.CartItem `json:"items" binding:"required"`
}

// Sync handles POST /v1/cart/sync, replacing the stored cart with the
// client's view (the client remains the single writer of its cart).
func (h *CartHandler) Sync(c *gin.Context) {
	var req syncCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid cart payload"})
		return
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "each item needs a productId and quantity >= 1"})
			return
		}
	}
	if err := h.carts.Replace(c.Request.Context(), middleware.UserID(c), req.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "could not save cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": req.Items})
}

// Clear handles DELETE /v1/cart. Safe to call on an already-empty cart.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "could not clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": []domain.CartItem{}})
}
