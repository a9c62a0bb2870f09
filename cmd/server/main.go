package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/config"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/handlers"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/logger"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/metrics"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/routes"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/service"
)

func main() {
	log, err := logger.Init(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Load configuration; missing values are fatal before any I/O happens
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	metrics.Register()

	// Shared collaborators: dedupe store, bus connection, publisher
	svc, err := service.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer svc.Close()

	webhookHandler := handlers.NewWebhookHandler(svc.Verifier, svc.Store, svc.Publisher, log)
	healthHandler := handlers.NewHealthHandler(svc.Bus, svc.Store)

	app := fiber.New(fiber.Config{
		AppName:      "Webhook Ingress",
		ServerHeader: "Fiber",
		Concurrency:  cfg.Server.Concurrency,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, webhookHandler, healthHandler)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		log.Info("Server starting",
			zap.String("address", addr),
			zap.String("dedupe_backend", cfg.Dedupe.Backend),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
