// Package routes wires HTTP paths to handlers and their middleware.
package routes

import (
	"time"

	"scanpay/internal/handlers"
	"scanpay/internal/middleware"
	"scanpay/internal/models"
	"scanpay/internal/services/auth"
	"scanpay/internal/services/dashboard"
	"scanpay/internal/services/geo"
	"scanpay/internal/services/ledger"
	"scanpay/internal/services/provider"
	"scanpay/internal/services/receipt"
	"scanpay/internal/services/store"
	"scanpay/internal/services/verification"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the API is built from. Sandbox is nil outside
// development; Gatherer is nil when metrics are not exposed.
type Deps struct {
	JWTSecret    string
	Auth         auth.Service
	Ledger       ledger.Service
	Receipts     receipt.Service
	Verification verification.Service
	Locator      geo.Service
	Stores       store.Service
	Dashboard    dashboard.Service
	Sandbox      *provider.SandboxGateway
	Health       map[string]handlers.Pinger
	Gatherer     prometheus.Gatherer

	// StripeWebhooks is set when Stripe settles orders through webhooks.
	StripeWebhooks handlers.WebhookParser

	// AuthLimit caps login and signup attempts per IP per minute; zero disables it.
	AuthLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, d Deps) {
	authMiddleware := middleware.NewAuthMiddleware(d.JWTSecret)

	authHandler := handlers.NewAuthHandler(d.Auth)
	orderHandler := handlers.NewOrderHandler(d.Ledger, d.Receipts)
	receiptHandler := handlers.NewReceiptHandler(d.Receipts, d.Verification)
	storeHandler := handlers.NewStoreHandler(d.Stores, d.Locator)
	staffHandler := handlers.NewStaffHandler(d.Dashboard, d.Stores, d.Verification)
	healthHandler := handlers.NewHealthHandler(d.Health)

	app.Get("/health", healthHandler.HealthCheck)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Public routes
	authRoutes := api.Group("/auth")
	if d.AuthLimit > 0 {
		authRoutes.Use(limiter.New(limiter.Config{
			Max:        d.AuthLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
				})
			},
		}))
	}
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/create-staff", authHandler.CreateStaff)
	authRoutes.Post("/login", authHandler.Login)

	api.Get("/stores/nearby", storeHandler.Nearby)
	api.Get("/stores/:id", storeHandler.GetStore)

	if d.Sandbox != nil {
		sandboxHandler := handlers.NewSandboxHandler(d.Sandbox)
		api.Post("/sandbox/orders/:orderId/pay", sandboxHandler.Pay)
	}

	if d.StripeWebhooks != nil {
		webhookHandler := handlers.NewWebhookHandler(d.StripeWebhooks, d.Ledger, d.Receipts)
		api.Post("/payments/stripe/webhook", webhookHandler.Stripe)
	}

	// Protected routes. The group middleware applies to every /api route
	// registered after this point, so public routes stay above.
	protected := api.Group("", authMiddleware.Handler)
	customer := middleware.RequireRole(models.RoleCustomer)
	staff := middleware.RequireRole(models.RoleStaff)

	protected.Post("/orders", customer, middleware.HasPermission(models.PermissionOrderWrite), orderHandler.CreateOrder)
	protected.Post("/orders/confirm", customer, middleware.HasPermission(models.PermissionOrderWrite), orderHandler.ConfirmOrder)
	protected.Get("/receipts/:orderId", customer, middleware.HasPermission(models.PermissionReceiptRead), receiptHandler.GetReceipt)

	protected.Post("/receipts/:receiptId/verify", staff, middleware.HasPermission(models.PermissionReceiptVerify), receiptHandler.VerifyReceipt)
	protected.Get("/staff/dashboard", staff, middleware.HasPermission(models.PermissionDashboardRead), staffHandler.GetDashboard)
	protected.Get("/staff/verifications", staff, middleware.HasPermission(models.PermissionDashboardRead), staffHandler.GetVerifications)
	protected.Put("/staff/store-settings", staff, middleware.HasPermission(models.PermissionStoreWrite), staffHandler.UpdateStoreSettings)
}
