package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/abhirang/internal/config"
	"github.com/example/abhirang/internal/handlers"
	"github.com/example/abhirang/internal/middleware"
	"github.com/example/abhirang/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *zap.Logger) {
	gateway := services.NewGatewayClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	couponService := services.NewCouponService(db)
	checkoutService := services.NewCheckoutService(db, couponService, logger)
	paymentService := services.NewPaymentService(db, gateway, cfg.Currency, logger)

	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	profileHandler := handlers.NewProfileHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(db)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.RazorpayKeyID)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/products", catalogHandler.ListProducts)
	api.Get("/products/:slug", catalogHandler.GetProduct)

	// Gateway webhook: authenticated by signature, not by JWT
	api.Post("/payments/webhook",
		middleware.WebhookSignatureMiddleware(cfg.RazorpayWebhookSecret),
		paymentHandler.Webhook)

	// Everything below requires an authenticated user
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	profile := protected.Group("/profile")
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Get("/addresses", profileHandler.ListAddresses)
	profile.Post("/addresses", profileHandler.CreateAddress)
	profile.Put("/addresses/:id", profileHandler.UpdateAddress)
	profile.Delete("/addresses/:id", profileHandler.DeleteAddress)

	cart := protected.Group("/cart")
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:id", cartHandler.UpdateItem)
	cart.Delete("/items/:id", cartHandler.RemoveItem)
	cart.Delete("/", cartHandler.ClearCart)

	checkout := protected.Group("/checkout")
	checkout.Get("/", checkoutHandler.GetQuote)
	checkout.Post("/coupon", checkoutHandler.ApplyCoupon)
	checkout.Delete("/coupon", checkoutHandler.RemoveCoupon)
	checkout.Post("/place-order", checkoutHandler.PlaceOrder)

	orders := protected.Group("/orders")
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:orderNumber", orderHandler.GetOrder)

	payments := protected.Group("/payments")
	payments.Post("/initiate", paymentHandler.Initiate)
	payments.Post("/callback", paymentHandler.Callback)
}
