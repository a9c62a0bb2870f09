package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/dedupe"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/metrics"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/models"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/publisher"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/signature"
)

// WebhookHandler runs the verify -> dedupe -> publish -> mark pipeline for
// each delivery. All collaborators are shared, long-lived and safe for
// concurrent use; the handler holds no cross-request state.
type WebhookHandler struct {
	Verifier  *signature.Verifier
	Store     dedupe.Store
	Publisher publisher.Publisher
	Logger    *zap.Logger
}

// NewWebhookHandler creates a new webhook handler with dependencies
func NewWebhookHandler(verifier *signature.Verifier, store dedupe.Store, pub publisher.Publisher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		Verifier:  verifier,
		Store:     store,
		Publisher: pub,
		Logger:    logger,
	}
}

// Live answers the liveness probe. It never touches collaborators.
func Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "live"})
}

// Handle processes POST /webhook.
//
// Status choices drive the sender's retry behavior: 400 means the delivery
// is unverifiable and must not be retried, 500 means it should be. A
// recognized duplicate is a 200 so the sender stops redelivering.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	metrics.WebhookEventsReceivedTotal.Inc()
	start := time.Now()
	defer func() {
		metrics.WebhookPipelineDuration.Observe(time.Since(start).Seconds())
	}()

	event, err := h.Verifier.Verify(c.Body(), c.Get(signature.Header))
	if err != nil {
		metrics.WebhookEventsRejectedTotal.Inc()
		if signature.IsSignatureError(err) {
			h.Logger.Warn("Rejected webhook with bad signature", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).SendString("Invalid signature")
		}
		h.Logger.Warn("Rejected webhook with bad payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).SendString("Invalid payload")
	}

	ctx := c.UserContext()

	seen, err := h.Store.Seen(ctx, event.ID)
	if err != nil {
		metrics.WebhookPublishFailuresTotal.Inc()
		h.Logger.Error("Dedupe lookup failed",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal error")
	}
	if seen {
		metrics.WebhookEventsDuplicateTotal.Inc()
		h.Logger.Info("Duplicate delivery suppressed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)
		return c.JSON(fiber.Map{"status": "duplicate"})
	}

	envelope := models.NewEnvelope(event)
	body, err := envelope.Marshal()
	if err != nil {
		metrics.WebhookPublishFailuresTotal.Inc()
		h.Logger.Error("Failed to serialize envelope",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal error")
	}

	if err := h.Publisher.Publish(ctx, body); err != nil {
		// The id stays unmarked so the sender's retry republishes.
		metrics.WebhookPublishFailuresTotal.Inc()
		h.Logger.Error("Failed to publish event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal error")
	}

	if err := h.Store.MarkSeen(ctx, event.ID); err != nil {
		// The message is already on the bus. Failing the request here would
		// trigger an upstream retry and a guaranteed duplicate publish, so
		// this is a soft error: log it and report success.
		h.Logger.Error("Failed to mark event as processed after publish",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}

	metrics.WebhookEventsPublishedTotal.Inc()
	h.Logger.Info("Event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("delivery_id", envelope.DeliveryID),
	)
	return c.JSON(fiber.Map{"status": "ok"})
}
