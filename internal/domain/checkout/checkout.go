// Package checkout defines the outbound port for the external payment
// provider: session creation for the order workflow and the verified event
// value consumed by the reconciler.
package checkout

import (
	"context"
	"errors"
)

var (
	// ErrBadSignature marks an inbound event whose signature could not be
	// verified. Such an event must never reach the reconciler.
	ErrBadSignature = errors.New("checkout: invalid event signature")
	// ErrSessionFailed marks a session-creation attempt the provider rejected
	// or that could not complete.
	ErrSessionFailed = errors.New("checkout: session creation failed")
)

// EventType is the provider's event vocabulary. Types outside this set are
// passed through and ignored by the reconciler.
type EventType string

const (
	EventCheckoutCompleted     EventType = "checkout.session.completed"
	EventCheckoutExpired       EventType = "checkout.session.expired"
	EventAsyncPaymentSucceeded EventType = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    EventType = "checkout.session.async_payment_failed"
)

// Event is a verified, parsed provider event. OrderID and ProductID come
// from the session metadata the gateway echoed back verbatim.
type Event struct {
	ID        string
	Type      EventType
	SessionID string
	OrderID   string
	ProductID string
}

// SessionParams describes the checkout session requested for one order.
// AmountCents is the full order total; metadata must round-trip through the
// provider unchanged.
type SessionParams struct {
	AmountCents   int64
	Currency      string
	ProductName   string
	Description   string
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// Session is the provider-hosted payment flow the buyer is redirected to.
type Session struct {
	ID  string
	URL string
}

// Gateway creates provider checkout sessions.
type Gateway interface {
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
}

// EventVerifier turns a raw webhook delivery into a verified Event.
// Implementations must operate on the exact payload bytes as sent.
type EventVerifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (*Event, error)
}
