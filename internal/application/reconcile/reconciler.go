// Package reconcile applies provider-reported payment outcomes to local
// order and inventory state. Events arrive at least once and possibly out of
// order; the conditional pending-only write is what makes that safe.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shopnest/backend/internal/domain/checkout"
	domain "github.com/shopnest/backend/internal/domain/order"
	domprod "github.com/shopnest/backend/internal/domain/product"
	"github.com/shopnest/backend/internal/pkg/logging"
)

// ErrIntegrityAnomaly marks a state the two-store design cannot repair on its
// own: money moved externally but the local decrement found the product
// missing or oversold. It must surface for manual reconciliation.
var ErrIntegrityAnomaly = errors.New("reconcile: integrity anomaly")

// EventLog optionally short-circuits redelivered events by provider event ID.
// The conditional order write remains the correctness mechanism; this only
// saves store round-trips.
type EventLog interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Reconciler struct {
	orders   domain.Repository
	products domprod.Repository
	events   EventLog // nil-safe

	outcomes *prometheus.CounterVec // webhook_events_total{type,outcome}, nil-safe
}

func New(orders domain.Repository, products domprod.Repository, opts ...Option) *Reconciler {
	r := &Reconciler{
		orders:   orders,
		products: products,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type Option func(*Reconciler)

func WithEventLog(log EventLog) Option {
	return func(r *Reconciler) { r.events = log }
}

func WithOutcomeCounter(c *prometheus.CounterVec) Option {
	return func(r *Reconciler) { r.outcomes = c }
}

// HandleEvent applies one verified provider event. Errors are per-event: the
// caller signals non-success to the provider, whose redelivery is the only
// retry mechanism; each redelivered attempt is independent and idempotent.
func (r *Reconciler) HandleEvent(ctx context.Context, event *checkout.Event) (err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "reconciler"),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("order_id", event.OrderID),
	)

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		if r.outcomes != nil {
			r.outcomes.WithLabelValues(string(event.Type), outcome).Inc()
		}
	}()

	if fresh, skip := r.claimEvent(ctx, event.ID, logger); skip {
		return nil
	} else if !fresh {
		// Claim failed open; proceed, the conditional write still protects us.
		logger.Warn("event_log_unavailable")
	}
	defer func() {
		if err != nil {
			r.releaseEvent(ctx, event.ID, logger)
		}
	}()

	switch event.Type {
	case checkout.EventCheckoutCompleted, checkout.EventAsyncPaymentSucceeded:
		return r.handlePaymentSucceeded(ctx, event, logger)
	case checkout.EventCheckoutExpired:
		return r.handleExpired(ctx, event, logger)
	case checkout.EventAsyncPaymentFailed:
		return r.handlePaymentFailed(ctx, event, logger)
	default:
		// Unknown vocabulary: log and move on so new provider event kinds
		// never break the intake path.
		logger.Info("event_unhandled")
		return nil
	}
}

// handlePaymentSucceeded flips a pending order to paid/processing and, only
// when this delivery won the flip, decrements stock. The two writes are
// separate operations with no cross-store transaction; an anomaly between
// them is reported, never auto-corrected.
func (r *Reconciler) handlePaymentSucceeded(ctx context.Context, event *checkout.Event, logger *zap.Logger) error {
	if event.OrderID == "" {
		return fmt.Errorf("%w: success event without order id", ErrIntegrityAnomaly)
	}

	transitioned, err := r.orders.UpdateIfPaymentPending(ctx, event.OrderID, domain.PaymentPaid, domain.StatusProcessing)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Money moved externally with no local record; never swallow.
			logger.Error("order_missing_for_paid_event")
			return fmt.Errorf("%w: order %s not found", ErrIntegrityAnomaly, event.OrderID)
		}
		return fmt.Errorf("reconcile: order update: %w", err)
	}
	if !transitioned {
		logger.Info("event_ignored_order_resolved")
		return nil
	}

	order, err := r.orders.FindByOrderID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("reconcile: reload order: %w", err)
	}

	productID := event.ProductID
	if productID == "" {
		productID = order.Item.ProductID
	}

	if err := r.products.DecrementStock(ctx, productID, order.Item.Quantity); err != nil {
		switch {
		case errors.Is(err, domprod.ErrNotFound):
			logger.Error("product_missing_for_paid_order", zap.String("product_id", productID))
			return fmt.Errorf("%w: product %s not found", ErrIntegrityAnomaly, productID)
		case errors.Is(err, domprod.ErrInsufficientStock):
			// Oversold: confirmed demand exceeds recorded stock. Requires
			// manual resolution, not an automatic correction.
			logger.Error("oversell_detected",
				zap.String("product_id", productID),
				zap.Int("quantity", order.Item.Quantity),
			)
			return fmt.Errorf("%w: oversold product %s: %w", ErrIntegrityAnomaly, productID, err)
		default:
			return fmt.Errorf("reconcile: stock decrement: %w", err)
		}
	}

	logger.Info("payment_reconciled",
		zap.String("product_id", productID),
		zap.Int("decremented", order.Item.Quantity),
	)
	return nil
}

func (r *Reconciler) handleExpired(ctx context.Context, event *checkout.Event, logger *zap.Logger) error {
	transitioned, err := r.orders.UpdateIfPaymentPending(ctx, event.OrderID, domain.PaymentCancelled, domain.StatusCancelled)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// An expired session for an unknown order carries no money; the
			// buyer may have abandoned checkout before the order persisted.
			logger.Warn("expired_event_order_missing")
			return nil
		}
		return fmt.Errorf("reconcile: order update: %w", err)
	}
	if transitioned {
		logger.Info("order_cancelled_session_expired")
	} else {
		logger.Info("event_ignored_order_resolved")
	}
	return nil
}

func (r *Reconciler) handlePaymentFailed(ctx context.Context, event *checkout.Event, logger *zap.Logger) error {
	// Fulfillment status is untouched: a failed async payment only settles
	// the payment side of a pending order.
	transitioned, err := r.orders.UpdateIfPaymentPending(ctx, event.OrderID, domain.PaymentFailed, domain.StatusPending)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("failed_event_order_missing")
			return nil
		}
		return fmt.Errorf("reconcile: order update: %w", err)
	}
	if transitioned {
		logger.Info("order_payment_failed")
	} else {
		logger.Info("event_ignored_order_resolved")
	}
	return nil
}

// claimEvent returns skip=true when this event ID was already processed.
func (r *Reconciler) claimEvent(ctx context.Context, eventID string, logger *zap.Logger) (fresh, skip bool) {
	if r.events == nil || eventID == "" {
		return true, false
	}
	first, err := r.events.MarkProcessed(ctx, eventID)
	if err != nil {
		return false, false
	}
	if !first {
		logger.Info("event_duplicate_skipped")
		return true, true
	}
	return true, false
}

// releaseEvent unwinds the processed marker after a failure so the provider's
// redelivery gets a full retry.
func (r *Reconciler) releaseEvent(ctx context.Context, eventID string, logger *zap.Logger) {
	if r.events == nil || eventID == "" {
		return
	}
	if err := r.events.Forget(ctx, eventID); err != nil {
		logger.Warn("event_log_release_failed", zap.Error(err))
	}
}
