package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/shopnest/backend/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.OrderID == "" {
		return fmt.Errorf("order repository: order id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.OrderID]; exists {
		return domain.ErrConflict
	}

	r.orders[o.OrderID] = o.Clone()
	return nil
}

func (r *OrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.OrderID == "" {
		return fmt.Errorf("order repository: order id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.OrderID]; !exists {
		return domain.ErrNotFound
	}
	r.orders[o.OrderID] = o.Clone()
	return nil
}

// UpdateIfPaymentPending is the in-memory equivalent of a conditional write:
// the check and the mutation happen under one lock.
func (r *OrderRepository) UpdateIfPaymentPending(ctx context.Context, orderID string, payment domain.PaymentStatus, status domain.Status) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.PaymentStatus != domain.PaymentPending {
		return false, nil
	}

	updated := o.Clone()
	updated.PaymentStatus = payment
	updated.Status = status
	r.orders[orderID] = updated
	return true, nil
}

func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[orderID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.orders, orderID)
	return nil
}

func (r *OrderRepository) FindByUser(ctx context.Context, uid string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Order
	for _, o := range r.orders {
		if o.User.UID == uid {
			out = append(out, o.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *OrderRepository) FindAll(ctx context.Context, limit, skip int) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, o.Clone())
	}
	sortNewestFirst(all)

	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func sortNewestFirst(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
