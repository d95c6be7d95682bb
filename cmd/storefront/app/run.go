package app

import (
	"context"
	"net/http"
	"time"

	"github.com/agrikart/storefront/configs"
	"github.com/agrikart/storefront/internal/adapter/backend"
	"github.com/agrikart/storefront/internal/adapter/cache"
	stohttp "github.com/agrikart/storefront/internal/adapter/http"
	"github.com/agrikart/storefront/internal/adapter/http/middleware"
	"github.com/agrikart/storefront/internal/logging"
	"github.com/agrikart/storefront/internal/usecase"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    configs.Config
	server *http.Server
}

func (a *App) Run() error {
	return a.server.ListenAndServe()
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile)

	// redis backs the cart store and the order-status cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	logger.Info("storefront: starting up", "backend", cfg.Backend.BaseURL)

	// infra
	gw := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	carts := cache.NewRedisCartStore(rdb, cfg.Cart.TTL)
	statuses := cache.NewRedisStatusCache(rdb, cfg.StatusCache.TTL)

	// usecases
	shipping := usecase.NewShippingPolicy(cfg.Checkout.CODShippingCharge)
	checkout := usecase.NewCheckout(gw, carts, shipping, logging.New("checkout"))
	reconciler := usecase.NewReconciler(gw, carts, statuses, usecase.ReconcilerConfig{
		PollInterval:  cfg.Checkout.PollInterval,
		PollTimeout:   cfg.Checkout.PollTimeout,
		RedirectDelay: cfg.Checkout.RedirectDelay,
		SessionTTL:    cfg.Checkout.SessionTTL,
	}, logging.New("reconciler"))

	// handlers + router + middleware
	handlers := stohttp.Handlers{
		Checkout: stohttp.NewCheckoutHandler(checkout),
		Payment:  stohttp.NewPaymentHandler(reconciler),
		Cart:     stohttp.NewCartHandler(carts),
		Orders:   stohttp.NewOrderHandler(gw, statuses),
	}
	authz := middleware.NewAuthz(cfg)
	router := stohttp.NewRouter(cfg, handlers, authz, logging.New("http"))

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	cleanup := func() {
		reconciler.Close()
		_ = rdb.Close()
	}

	return &App{cfg: cfg, server: srv}, cleanup, nil
}
