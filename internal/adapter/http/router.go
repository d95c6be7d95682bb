package http

import (
	"log/slog"

	"github.com/agrikart/storefront/configs"
	"github.com/agrikart/storefront/internal/adapter/http/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Checkout *CheckoutHandler
	Payment  *PaymentHandler
	Cart     *CartHandler
	Orders   *OrderHandler
}

func NewRouter(cfg configs.Config, h Handlers, authz *middleware.Authz, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.Logging(log))

	if len(cfg.CORS.AllowOrigins) > 0 {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = cfg.CORS.AllowOrigins
		cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
		r.Use(cors.New(cc))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/checkout", authz.Require("cart.rw"), h.Checkout.Submit)

		// The gateway return URL carries the mtid; verification is
		// idempotent per mtid.
		v1.GET("/payment/return", authz.Require("cart.rw"), h.Payment.Return)
		v1.GET("/payment/status", authz.Require("cart.rw"), h.Payment.Status)

		v1.GET("/cart", authz.Require("cart.rw"), h.Cart.Get)
		v1.POST("/cart/sync", authz.Require("cart.rw"), h.Cart.Sync)
		v1.DELETE("/cart", authz.Require("cart.rw"), h.Cart.Clear)

		v1.GET("/orders/my", authz.Require("orders.read"), h.Orders.My)
		v1.GET("/orders/:id", authz.Require("orders.read"), h.Orders.GetByID)
		v1.GET("/orders/:id/status", authz.Require("orders.read"), h.Orders.GetStatus)

		admin := v1.Group("/admin", authz.Require("orders.admin"))
		{
			admin.GET("/orders", h.Orders.AdminList)
			admin.PATCH("/orders/:id/status", h.Orders.AdminUpdateStatus)
		}
	}

	return r
}
