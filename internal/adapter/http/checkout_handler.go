package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/agrikart/storefront/internal/adapter/http/middleware"
	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/agrikart/storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkout *usecase.Checkout
}

func NewCheckoutHandler(checkout *usecase.Checkout) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutReq struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod" binding:"required"`
}

// Submit handles POST /v1/checkout. Online payments answer with the
// gateway redirect target; COD answers with the created order.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid checkout payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	res, err := h.checkout.Submit(ctx, usecase.SubmitInput{
		UserID:  middleware.UserID(c),
		Auth:    middleware.Bearer(c),
		Address: req.ShippingAddress,
		Method:  req.PaymentMethod,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if res.RedirectURL != "" {
		// Full navigation, not an in-app route change: control passes to
		// the external payment gateway.
		c.JSON(http.StatusOK, gin.H{
			"state":       "redirect",
			"redirectUrl": res.RedirectURL,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"state":    "created",
		"orderId":  res.OrderID,
		"location": res.Location,
	})
}

func (h *CheckoutHandler) writeError(c *gin.Context, err error) {
	var fe *domain.FieldError
	switch {
	case errors.Is(err, usecase.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "submission_in_flight", "message": err.Error()})
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrInvalidMethod), errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
	case errors.Is(err, usecase.ErrPaymentInitiation):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment_initiation", "message": err.Error(), "retry": true})
	case errors.Is(err, usecase.ErrOrderCreation):
		c.JSON(http.StatusBadGateway, gin.H{"error": "order_creation", "message": err.Error(), "retry": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "checkout failed, please retry"})
	}
}
