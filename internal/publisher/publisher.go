// Package publisher hands serialized event envelopes to the message bus.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/config"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/rabbitmq"
)

// Publisher accepts a serialized envelope and returns only after the bus has
// durably accepted it. Retries are the caller's (and the upstream sender's)
// responsibility.
type Publisher interface {
	Publish(ctx context.Context, envelope []byte) error
}

// RabbitMQPublisher publishes envelopes over a shared confirm-mode channel.
// The connection is created once at process start and reused across all
// requests.
type RabbitMQPublisher struct {
	conn       *rabbitmq.Connection
	exchange   string
	routingKey string
	timeout    time.Duration
}

// New creates a publisher for the configured destination.
func New(conn *rabbitmq.Connection, cfg *config.PublishConfig) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		conn:       conn,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		timeout:    cfg.Timeout,
	}
}

// Publish blocks until the broker confirms the message, bounded by the
// publisher's own timeout so a hung broker surfaces as an error before the
// sender's delivery deadline.
func (p *RabbitMQPublisher) Publish(ctx context.Context, envelope []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.conn.Publish(ctx, p.exchange, p.routingKey, envelope); err != nil {
		return fmt.Errorf("publish to %s/%s failed: %w", p.exchange, p.routingKey, err)
	}
	return nil
}
