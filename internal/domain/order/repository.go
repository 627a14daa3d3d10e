package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	FindByOrderID(ctx context.Context, orderID string) (*Order, error)
	Update(ctx context.Context, order *Order) error

	// UpdateIfPaymentPending applies the given statuses only when the stored
	// order is still payment-pending. It reports false without error when the
	// order was already resolved, which is what keeps duplicate and
	// out-of-order provider events harmless even when they interleave.
	UpdateIfPaymentPending(ctx context.Context, orderID string, payment PaymentStatus, status Status) (bool, error)

	// Delete removes an order. Only used to roll back a creation whose
	// checkout session could not be established; settled orders are never
	// deleted.
	Delete(ctx context.Context, orderID string) error

	FindByUser(ctx context.Context, uid string) ([]*Order, error)
	FindAll(ctx context.Context, limit, skip int) ([]*Order, error)
}
