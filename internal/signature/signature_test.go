package signature

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

var validBody = []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"amount":4200}}}`)

func newTestVerifier(now time.Time) *Verifier {
	v := NewVerifier(testSecret, DefaultTolerance)
	v.Now = func() time.Time { return now }
	return v
}

func TestVerify_ValidSignature(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := newTestVerifier(now)

	event, err := v.Verify(validBody, Sign(testSecret, now, validBody))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "payment_intent.succeeded", event.Type)
	assert.Equal(t, "evt_1", event.Payload["id"])

	data, ok := event.Payload["data"].(map[string]interface{})
	require.True(t, ok)
	object, ok := data["object"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4200), object["amount"])
}

func TestVerify_SignatureErrors(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	valid := Sign(testSecret, now, validBody)

	tests := []struct {
		name    string
		body    []byte
		header  string
		wantErr error
	}{
		{
			name:    "missing header",
			body:    validBody,
			header:  "",
			wantErr: ErrMissingSignature,
		},
		{
			name:    "header without signature entry",
			body:    validBody,
			header:  "t=1748779200",
			wantErr: ErrMissingSignature,
		},
		{
			name:    "header without timestamp",
			body:    validBody,
			header:  "v1=deadbeef",
			wantErr: ErrMissingSignature,
		},
		{
			name:    "garbage timestamp",
			body:    validBody,
			header:  "t=soon,v1=deadbeef",
			wantErr: ErrMissingSignature,
		},
		{
			name:    "signature from different secret",
			body:    validBody,
			header:  Sign("whsec_other_secret", now, validBody),
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "body mutated after signing",
			body:    []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"amount":4201}}}`),
			header:  valid,
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "signature truncated",
			body:    validBody,
			header:  valid[:len(valid)-2],
			wantErr: ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(now)
			event, err := v.Verify(tt.body, tt.header)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsSignatureError(err))
		})
	}
}

func TestVerify_SingleByteMutationRejected(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := newTestVerifier(now)
	header := Sign(testSecret, now, validBody)

	// Flip one byte inside a JSON string value so the body stays well-formed.
	mutated := make([]byte, len(validBody))
	copy(mutated, validBody)
	mutated[7] = 'E' // id "evt_1" -> "Evt_1"

	event, err := v.Verify(mutated, header)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_Tolerance(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stale timestamp rejected", func(t *testing.T) {
		v := newTestVerifier(now)
		header := Sign(testSecret, now.Add(-6*time.Minute), validBody)
		_, err := v.Verify(validBody, header)
		assert.ErrorIs(t, err, ErrToleranceExceeded)
	})

	t.Run("future timestamp rejected", func(t *testing.T) {
		v := newTestVerifier(now)
		header := Sign(testSecret, now.Add(6*time.Minute), validBody)
		_, err := v.Verify(validBody, header)
		assert.ErrorIs(t, err, ErrToleranceExceeded)
	})

	t.Run("skew inside tolerance accepted", func(t *testing.T) {
		v := newTestVerifier(now)
		header := Sign(testSecret, now.Add(-4*time.Minute), validBody)
		event, err := v.Verify(validBody, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
	})

	t.Run("custom tolerance", func(t *testing.T) {
		v := NewVerifier(testSecret, time.Minute)
		v.Now = func() time.Time { return now }
		header := Sign(testSecret, now.Add(-2*time.Minute), validBody)
		_, err := v.Verify(validBody, header)
		assert.ErrorIs(t, err, ErrToleranceExceeded)
	})
}

func TestVerify_PayloadErrors(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body []byte
	}{
		{name: "not json", body: []byte("this is not json")},
		{name: "json array", body: []byte(`["evt_1"]`)},
		{name: "missing id", body: []byte(`{"type":"payment_intent.succeeded"}`)},
		{name: "non-string id", body: []byte(`{"id":42,"type":"x"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(now)
			// Signature is valid for the body: the payload error must win.
			event, err := v.Verify(tt.body, Sign(testSecret, now, tt.body))
			assert.Nil(t, event)
			assert.ErrorIs(t, err, ErrInvalidPayload)
			assert.False(t, IsSignatureError(err))
		})
	}
}

func TestVerify_MultipleSignatures(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := newTestVerifier(now)

	// Secret rollover: an old-secret signature first, the matching one second.
	stale := Sign("whsec_retired_secret", now, validBody)
	current := Sign(testSecret, now, validBody)
	_, currentV1, found := strings.Cut(current, ",")
	require.True(t, found)
	header := stale + "," + currentV1

	event, err := v.Verify(validBody, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
}
