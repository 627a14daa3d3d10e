package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopnest/backend/internal/domain/checkout"
)

// DefaultTolerance bounds how old a signed payload may be before it is
// rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// WebhookVerifier authenticates raw webhook deliveries against the endpoint's
// shared secret and parses them into checkout events.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

type VerifierOption func(*WebhookVerifier)

// WithTolerance overrides the replay tolerance window.
func WithTolerance(d time.Duration) VerifierOption {
	return func(v *WebhookVerifier) { v.tolerance = d }
}

// WithClock injects the time source, used in tests.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *WebhookVerifier) { v.now = now }
}

func NewWebhookVerifier(secret string, opts ...VerifierOption) *WebhookVerifier {
	v := &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type eventPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ConstructEvent verifies the signature header against the exact payload
// bytes as delivered and returns the parsed event. Verification failure means
// the event must never reach the reconciler.
func (v *WebhookVerifier) ConstructEvent(payload []byte, signatureHeader string) (*checkout.Event, error) {
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}

	if age := v.now().Sub(time.Unix(timestamp, 0)); age > v.tolerance || age < -v.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", checkout.ErrBadSignature)
	}

	expected := computeSignature(v.secret, timestamp, payload)
	if !anySignatureMatches(signatures, expected) {
		return nil, checkout.ErrBadSignature
	}

	var raw eventPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("checkout: parse event: %w", err)
	}

	return &checkout.Event{
		ID:        raw.ID,
		Type:      checkout.EventType(raw.Type),
		SessionID: raw.Data.Object.ID,
		OrderID:   raw.Data.Object.Metadata["orderID"],
		ProductID: raw.Data.Object.Metadata["productID"],
	}, nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]". Multiple v1
// entries appear during secret rotation.
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", checkout.ErrBadSignature)
	}

	var (
		timestamp  int64
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed timestamp", checkout.ErrBadSignature)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", checkout.ErrBadSignature)
	}
	return timestamp, signatures, nil
}

func computeSignature(secret []byte, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func anySignatureMatches(candidates []string, expected []byte) bool {
	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}

// SignPayload produces a valid signature header for the given payload. Used by
// tests and local tooling to fabricate deliveries.
func SignPayload(secret string, timestamp time.Time, payload []byte) string {
	sig := computeSignature([]byte(secret), timestamp.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp.Unix(), hex.EncodeToString(sig))
}
