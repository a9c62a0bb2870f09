package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerifiedEvent is a provider event whose signature has been validated.
// ID is the provider-assigned event identifier and doubles as the
// idempotency key for duplicate suppression.
type VerifiedEvent struct {
	ID      string
	Type    string
	Payload map[string]interface{}
}

// Envelope is the wire form of a VerifiedEvent handed to the message bus.
// DeliveryID and ReceivedAt are stamped by the ingress for downstream
// tracing; the event fields round-trip untouched.
type Envelope struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	DeliveryID string                 `json:"delivery_id"`
	ReceivedAt time.Time              `json:"received_at"`
}

// NewEnvelope wraps a verified event for publishing.
func NewEnvelope(event *VerifiedEvent) Envelope {
	return Envelope{
		ID:         event.ID,
		Type:       event.Type,
		Payload:    event.Payload,
		DeliveryID: uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
	}
}

// Marshal serializes the envelope to its stable JSON byte form.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope for event %s: %w", e.ID, err)
	}
	return data, nil
}

// UnmarshalEnvelope decodes an envelope previously produced by Marshal.
// Downstream consumers use the same decoding.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return e, nil
}

// Event returns the verified event carried by the envelope.
func (e Envelope) Event() *VerifiedEvent {
	return &VerifiedEvent{
		ID:      e.ID,
		Type:    e.Type,
		Payload: e.Payload,
	}
}
