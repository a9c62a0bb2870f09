package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/dedupe"
)

// BusHealthChecker reports whether the message-bus connection is usable.
type BusHealthChecker interface {
	IsHealthy() bool
}

// HealthHandler answers the readiness probe with per-collaborator status.
type HealthHandler struct {
	Bus   BusHealthChecker
	Store dedupe.Store
}

// NewHealthHandler creates a new health handler with dependencies
func NewHealthHandler(bus BusHealthChecker, store dedupe.Store) *HealthHandler {
	return &HealthHandler{
		Bus:   bus,
		Store: store,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles the readiness endpoint
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if err := h.Store.Ping(ctx); err != nil {
		services["dedupe_store"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		services["dedupe_store"] = "healthy"
	}

	if h.Bus == nil || !h.Bus.IsHealthy() {
		services["rabbitmq"] = "unhealthy: connection closed"
		status = "unhealthy"
	} else {
		services["rabbitmq"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
