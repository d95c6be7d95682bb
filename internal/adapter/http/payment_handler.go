package http

import (
	"net/http"

	"github.com/agrikart/storefront/internal/adapter/http/middleware"
	"github.com/agrikart/storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

// PaymentHandler is the order-state view over reconciliation sessions:
// verifying, confirmed (with auto-redirect), failed (back to cart) or
// timed out (check order history).
type PaymentHandler struct {
	rec *usecase.Reconciler
}

func NewPaymentHandler(rec *usecase.Reconciler) *PaymentHandler {
	return &PaymentHandler{rec: rec}
}

// Return handles GET /v1/payment/return?mtid=... — the URL the gateway
// sends the browser back to. Starting is idempotent per mtid.
func (h *PaymentHandler) Return(c *gin.Context) {
	mtid := c.Query("mtid")
	view := h.rec.Start(mtid, middleware.UserID(c), middleware.Bearer(c))
	c.JSON(http.StatusOK, renderView(view))
}

// Status handles GET /v1/payment/status?mtid=... for subsequent refreshes
// of the verification screen.
func (h *PaymentHandler) Status(c *gin.Context) {
	mtid := c.Query("mtid")
	if mtid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "mtid query parameter required"})
		return
	}
	view, ok := h.rec.View(mtid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no verification in progress for this transaction"})
		return
	}
	c.JSON(http.StatusOK, renderView(view))
}

// renderView adds the recovery navigation for each terminal state.
func renderView(v usecase.SessionView) gin.H {
	out := gin.H{"state": v.State}
	if v.OrderID != "" {
		out["orderId"] = v.OrderID
	}
	if v.Message != "" {
		out["message"] = v.Message
	}
	switch v.State {
	case usecase.StateSuccess:
		if v.Location != "" {
			out["location"] = v.Location
			out["replaceHistory"] = v.ReplaceHistory
		}
	case usecase.StateError:
		out["backToCart"] = "/cart"
	case usecase.StateTimedOut:
		out["myOrders"] = "/my-orders"
	}
	return out
}
