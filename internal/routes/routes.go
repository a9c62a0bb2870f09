package routes

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/handlers"
)

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, webhookHandler *handlers.WebhookHandler, healthHandler *handlers.HealthHandler) {
	// Liveness probe, independent of collaborators
	app.Get("/", handlers.Live)

	// Readiness probe with per-service status
	app.Get("/healthz", healthHandler.HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Webhook ingress pipeline
	app.Post("/webhook", webhookHandler.Handle)

	// Anything else, including wrong methods on known paths
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusMethodNotAllowed).SendString("Method not allowed")
	})
}
