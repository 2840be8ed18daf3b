package main

import (
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	appmiddleware "storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/user"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.Open(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Redis backs the cart and the catalog cache when configured; both fall
	// back to in-process storage for local development.
	var catalogCache catalog.Cache
	var cartStorage cart.Storage
	if cfg.RedisAddr != "" {
		catalogCache = catalog.NewRedisCache(cfg.RedisAddr, "catalog")
		cartStorage = cart.NewRedisStorage(cfg.RedisAddr)
	} else {
		logger.L().Warn("REDIS_ADDR not set, using in-memory cart and cache")
		catalogCache = catalog.NewMemoryCache("catalog")
		cartStorage = cart.NewMemoryStorage()
	}

	catalogSvc := catalog.NewService(catalog.NewClient(cfg.CatalogBaseURL), catalogCache)
	catalogHandler := catalog.NewHandler(catalogSvc)

	userSvc := user.NewService(user.NewRepository(database))
	userHandler := user.NewHandler(userSvc)

	cartSvc := cart.NewService(cartStorage)
	cartHandler := cart.NewHandler(cartSvc)

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		APIKey:        cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		SuccessURL:    cfg.SuccessURL,
		CancelURL:     cfg.CancelURL,
	})
	payRepo := payment.NewRepository(database)

	orderSvc := order.NewService(order.NewRepository(database), catalogSvc, gateway, payRepo)
	orderHandler := order.NewHandler(orderSvc)

	webhookHandler := webhook.NewHandler(orderSvc, gateway, payRepo, cartSvc)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(appmiddleware.Authenticate)
	r.Use(appmiddleware.RateLimitMiddleware)
	r.Use(logger.AccessLogMiddleware)

	r.Get("/products", catalogHandler.ListProducts)
	r.Get("/products/{id}", catalogHandler.GetProduct)
	r.Get("/categories", catalogHandler.ListCategories)

	r.Post("/auth/register", userHandler.Register)
	r.Post("/auth/login", userHandler.Login)

	r.Post("/webhook", webhookHandler.Handle)

	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.RequireAuth)

		r.Get("/cart", cartHandler.Get)
		r.Put("/cart", cartHandler.Replace)
		r.Delete("/cart", cartHandler.Clear)

		r.Post("/checkout", orderHandler.Checkout)
		r.Get("/orders", orderHandler.List)
		r.Post("/orders", orderHandler.CreateDirect)
	})

	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.RequireAuth)
		r.Use(appmiddleware.RequireAdmin)

		r.Patch("/orders/{id}/status", orderHandler.UpdateStatus)
	})

	addr := ":" + cfg.AppPort
	logger.L().Info("server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
