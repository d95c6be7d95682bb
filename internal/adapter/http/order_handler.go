package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/agrikart/storefront/internal/adapter/http/middleware"
	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/agrikart/storefront/internal/logging"
	"github.com/agrikart/storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

// OrderHandler proxies order reads to the commerce backend and keeps the
// status cache warm. The backend stays authoritative throughout.
type OrderHandler struct {
	gw    usecase.CommerceGateway
	cache usecase.StatusCache
}

func NewOrderHandler(gw usecase.CommerceGateway, cache usecase.StatusCache) *OrderHandler {
	return &OrderHandler{gw: gw, cache: cache}
}

// GetByID handles GET /v1/orders/:id.
func (h *OrderHandler) GetByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.gw.OrderByID(ctx, middleware.Bearer(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.cache.SetStatus(ctx, order.ID, string(order.Status)); err != nil {
		logging.From(c).Warn("status cache write failed", "order_id", order.ID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetStatus handles GET /v1/orders/:id/status, serving the cached status
// when present and reading through otherwise.
func (h *OrderHandler) GetStatus(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if status, ok, err := h.cache.GetStatus(ctx, id); err == nil && ok {
		c.JSON(http.StatusOK, gin.H{"orderId": id, "status": status, "cached": true})
		return
	}
	order, err := h.gw.OrderByID(ctx, middleware.Bearer(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.cache.SetStatus(ctx, order.ID, string(order.Status)); err != nil {
		logging.From(c).Warn("status cache write failed", "order_id", order.ID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"orderId": order.ID, "status": order.Status, "cached": false})
}

// My handles GET /v1/orders/my.
func (h *OrderHandler) My(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.gw.MyOrders(ctx, middleware.Bearer(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// AdminList handles GET /v1/admin/orders.
func (h *OrderHandler) AdminList(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.gw.AllOrders(ctx, middleware.Bearer(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type updateStatusReq struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// AdminUpdateStatus handles PATCH /v1/admin/orders/:id/status as a
// two-phase optimistic update: write the speculative status to the cache,
// issue the backend call, and on failure re-fetch the authoritative order
// instead of hand-rolling a revert.
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid order status"})
		return
	}
	id := c.Param("id")
	auth := middleware.Bearer(c)
	l := logging.From(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.cache.SetStatus(ctx, id, string(req.Status)); err != nil {
		l.Warn("speculative status write failed", "order_id", id, "error", err)
	}

	order, err := h.gw.UpdateOrderStatus(ctx, auth, id, req.Status)
	if err != nil {
		// Roll back by re-fetching the authoritative state.
		if current, ferr := h.gw.OrderByID(ctx, auth, id); ferr == nil {
			if cerr := h.cache.SetStatus(ctx, current.ID, string(current.Status)); cerr != nil {
				l.Warn("status cache restore failed", "order_id", id, "error", cerr)
			}
		} else {
			l.Warn("authoritative re-fetch failed after update error", "order_id", id, "error", ferr)
		}
		h.writeError(c, err)
		return
	}

	if err := h.cache.SetStatus(ctx, order.ID, string(order.Status)); err != nil {
		l.Warn("status cache write failed", "order_id", order.ID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "order not found"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "backend", "message": err.Error()})
}
