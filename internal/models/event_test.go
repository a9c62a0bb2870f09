package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	event := &VerifiedEvent{
		ID:   "evt_abc123",
		Type: "charge.refunded",
		Payload: map[string]interface{}{
			"id":   "evt_abc123",
			"type": "charge.refunded",
			"data": map[string]interface{}{
				"object": map[string]interface{}{
					"amount":   float64(1999),
					"currency": "usd",
					"captured": true,
				},
			},
			"livemode": false,
		},
	}

	envelope := NewEnvelope(event)
	assert.NotEmpty(t, envelope.DeliveryID)
	assert.False(t, envelope.ReceivedAt.IsZero())

	data, err := envelope.Marshal()
	require.NoError(t, err)

	// A downstream consumer decoding the envelope sees the identical event.
	decoded, err := UnmarshalEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, envelope.DeliveryID, decoded.DeliveryID)
	assert.Equal(t, event, decoded.Event())
}

func TestEnvelope_DistinctDeliveryIDs(t *testing.T) {
	event := &VerifiedEvent{ID: "evt_1", Type: "x", Payload: map[string]interface{}{"id": "evt_1"}}

	// Each handoff gets its own delivery stamp even for the same event.
	first := NewEnvelope(event)
	second := NewEnvelope(event)
	assert.NotEqual(t, first.DeliveryID, second.DeliveryID)
}

func TestUnmarshalEnvelope_Invalid(t *testing.T) {
	_, err := UnmarshalEnvelope([]byte("not json"))
	assert.Error(t, err)
}
