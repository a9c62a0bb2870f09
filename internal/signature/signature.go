package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/models"
)

// Header is the request header carrying the provider's signing output.
const Header = "Stripe-Signature"

// DefaultTolerance is the accepted clock skew on the signature timestamp.
const DefaultTolerance = 5 * time.Minute

var (
	// ErrInvalidPayload means the body is not a well-formed event document.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrMissingSignature means the signature header is absent or has no
	// usable timestamp/signature pair.
	ErrMissingSignature = errors.New("missing signature header")
	// ErrInvalidSignature means no signature in the header matches the body.
	ErrInvalidSignature = errors.New("signature mismatch")
	// ErrToleranceExceeded means the signed timestamp is outside the
	// accepted clock-skew window, so the delivery is treated as a replay.
	ErrToleranceExceeded = errors.New("signature timestamp outside tolerance")
)

// IsSignatureError reports whether err belongs to the signature error class
// (as opposed to a payload error). Both map to a 400 upstream.
func IsSignatureError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrToleranceExceeded)
}

// Verifier validates provider-signed webhook payloads. The provider signs
// `<timestamp>.<rawBody>` with HMAC-SHA256 over the shared secret and sends
// the result in the signature header as `t=<unix>,v1=<hex>`. A header may
// carry several v1 entries (secret rollover); any match accepts.
type Verifier struct {
	secret    string
	tolerance time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// NewVerifier creates a verifier for the given shared secret. A
// non-positive tolerance falls back to DefaultTolerance.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		secret:    secret,
		tolerance: tolerance,
		Now:       time.Now,
	}
}

// Verify checks rawBody against the signature header and returns the decoded
// event. It is a pure function of its inputs: no side effects, safe for
// concurrent use.
func (v *Verifier) Verify(rawBody []byte, sigHeader string) (*models.VerifiedEvent, error) {
	event, err := parseEvent(rawBody)
	if err != nil {
		return nil, err
	}

	timestamp, candidates, err := parseHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	now := v.Now().UTC()
	skew := now.Sub(time.Unix(timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.tolerance {
		return nil, ErrToleranceExceeded
	}

	expected := computeSignature(v.secret, timestamp, rawBody)
	for _, candidate := range candidates {
		if hmac.Equal(candidate, expected) {
			return event, nil
		}
	}
	return nil, ErrInvalidSignature
}

// parseEvent decodes the raw body and extracts the event identity fields.
func parseEvent(rawBody []byte) (*models.VerifiedEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, ErrInvalidPayload
	}

	id, _ := payload["id"].(string)
	if id == "" {
		return nil, ErrInvalidPayload
	}
	eventType, _ := payload["type"].(string)

	return &models.VerifiedEvent{
		ID:      id,
		Type:    eventType,
		Payload: payload,
	}, nil
}

// parseHeader splits `t=<unix>,v1=<hex>,...` into the timestamp and the
// decoded v1 signatures. Entries with other schemes or undecodable values
// are ignored.
func parseHeader(sigHeader string) (int64, [][]byte, error) {
	sigHeader = strings.TrimSpace(sigHeader)
	if sigHeader == "" {
		return 0, nil, ErrMissingSignature
	}

	var (
		timestamp  int64 = -1
		candidates [][]byte
	)
	for _, pair := range strings.Split(sigHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrMissingSignature
			}
			timestamp = ts
		case "v1":
			decoded, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			candidates = append(candidates, decoded)
		}
	}

	if timestamp < 0 || len(candidates) == 0 {
		return 0, nil, ErrMissingSignature
	}
	return timestamp, candidates, nil
}

func computeSignature(secret string, timestamp int64, rawBody []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	return mac.Sum(nil)
}

// Sign computes the signature header value for a payload at the given time.
// Used by tests and by local delivery tooling.
func Sign(secret string, timestamp time.Time, rawBody []byte) string {
	ts := timestamp.Unix()
	sig := computeSignature(secret, ts, rawBody)
	return "t=" + strconv.FormatInt(ts, 10) + ",v1=" + hex.EncodeToString(sig)
}
