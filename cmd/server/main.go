// Command server runs the ScanPay HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scanpay/internal/config"
	"scanpay/internal/events"
	"scanpay/internal/handlers"
	"scanpay/internal/metrics"
	"scanpay/internal/repositories"
	"scanpay/internal/repositories/cache"
	"scanpay/internal/routes"
	"scanpay/internal/services/auth"
	"scanpay/internal/services/dashboard"
	"scanpay/internal/services/geo"
	"scanpay/internal/services/ledger"
	"scanpay/internal/services/provider"
	"scanpay/internal/services/receipt"
	"scanpay/internal/services/store"
	"scanpay/internal/services/verification"
	"scanpay/internal/utils/retry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type repos struct {
	users         repositories.UserRepository
	stores        repositories.StoreRepository
	orders        repositories.OrderRepository
	receipts      repositories.ReceiptRepository
	verifications repositories.VerificationRepository
}

func main() {
	config.LoadEnv()
	cfg := config.Load()
	if err := cfg.Validate(config.IsProduction()); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	health := map[string]handlers.Pinger{"redis": nil, "database": nil}

	cacheService, err := cache.Connect(ctx, cfg.Redis, 5*time.Minute)
	if err != nil {
		log.Printf("⚠️ Running without Redis cache: %v", err)
	} else {
		health["redis"] = cacheService
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}()
	}

	var r repos
	switch cfg.Storage {
	case "memory":
		log.Println("Using in-memory storage; data is lost on restart")
		mem := repositories.NewInMemoryStore()
		r = repos{mem.Users(), mem.Stores(), mem.Orders(), mem.Receipts(), mem.Verifications()}
	default:
		db, err := repositories.Connect(cfg.DB)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer repositories.Close(db)
		health["database"] = repositories.DBHealth{DB: db}

		var receiptRepo repositories.ReceiptRepository
		if cacheService != nil {
			receiptRepo = repositories.NewReceiptRepository(db, cacheService)
		} else {
			receiptRepo = repositories.NewReceiptRepository(db, nil)
		}
		r = repos{
			users:         repositories.NewUserRepository(db),
			stores:        repositories.NewStoreRepository(db),
			orders:        repositories.NewOrderRepository(db),
			receipts:      receiptRepo,
			verifications: repositories.NewVerificationRepository(db),
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("Publishing events to Kafka brokers %v", cfg.Kafka.Brokers)
	}

	var (
		gateway       provider.Gateway
		sandbox       *provider.SandboxGateway
		stripeGateway *provider.StripeGateway
	)
	switch cfg.Payment.Provider {
	case "stripe":
		stripeGateway = provider.NewStripeGateway(cfg.Payment.StripeKey, cfg.Payment.KeyID, cfg.Payment.StripeWebhookSecret)
		gateway = stripeGateway
	default:
		sandbox, err = provider.NewSandboxGateway(cfg.Payment.KeyID, cfg.Payment.SigningSecret)
		if err != nil {
			log.Fatalf("Failed to create sandbox gateway: %v", err)
		}
		gateway = sandbox
		log.Println("⚠️ Using sandbox payment provider")
	}
	gateway = provider.WithLimits(gateway, cfg.Payment.RatePerSecond, m)

	retryPolicy := retry.Policy{Attempts: cfg.Retry.Attempts, Backoff: cfg.Retry.Backoff}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("⚠️ Unknown STORE_TIMEZONE %q, using UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}

	var locator geo.Service
	if cacheService != nil {
		locator = geo.NewService(r.stores, cacheService, m, cfg.NearbyRadiusKm)
	} else {
		locator = geo.NewService(r.stores, nil, m, cfg.NearbyRadiusKm)
	}

	ledgerService := ledger.NewService(r.orders, r.stores, gateway, publisher, m, ledger.Config{
		SigningSecret:   cfg.Payment.SigningSecret,
		DefaultCurrency: cfg.DefaultCurrency,
		Timeout:         cfg.Payment.Timeout,
		Retry:           retryPolicy,
	})
	receiptService := receipt.NewService(r.receipts, r.orders, publisher, m, receipt.Config{
		Timeout: cfg.Payment.Timeout,
		Retry:   retryPolicy,
	})
	verificationService := verification.NewService(r.receipts, r.verifications, publisher, m, verification.Config{
		Timeout: cfg.Payment.Timeout,
		Retry:   retryPolicy,
	})

	deps := routes.Deps{
		JWTSecret:    cfg.JWTSecret,
		Auth:         auth.NewService(r.users, r.stores, cfg.JWTSecret, cfg.JWTTTL),
		Ledger:       ledgerService,
		Receipts:     receiptService,
		Verification: verificationService,
		Locator:      locator,
		Stores:       store.NewService(r.stores),
		Dashboard:    dashboard.NewService(r.receipts, loc),
		Health:       health,
		Gatherer:     reg,
		AuthLimit:    cfg.AuthLimit,
	}
	if sandbox != nil && !config.IsProduction() {
		deps.Sandbox = sandbox
	}
	if stripeGateway != nil {
		deps.StripeWebhooks = stripeGateway
	}

	app := fiber.New(fiber.Config{
		AppName:      "scanpay",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, deps)

	go ledger.RunReconciler(ctx, ledgerService, cfg.ReconcileEvery, cfg.ReconcileAfter)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("⚠️ Server shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
