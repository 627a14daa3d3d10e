package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/shopnest/backend/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders
			(order_id, uid, email, product_id, product_name, unit_price, quantity, status, payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.User.UID, o.User.Email,
		o.Item.ProductID, o.Item.Name, o.Item.UnitPrice, o.Item.Quantity,
		o.Status, o.PaymentStatus, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT order_id, uid, email, product_id, product_name, unit_price, quantity, status, payment_status, created_at, updated_at
		FROM orders WHERE order_id = ?`, orderID)
	return scanOrder(row)
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_status = ?, updated_at = ?
		WHERE order_id = ?`,
		o.Status, o.PaymentStatus, o.UpdatedAt, o.OrderID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return r.noRowOutcome(ctx, o.OrderID)
	}
	return nil
}

// UpdateIfPaymentPending is the conditional write the reconciler relies on:
// the WHERE clause guarantees only a still-pending order transitions, no
// matter how events interleave.
func (r *OrderRepository) UpdateIfPaymentPending(ctx context.Context, orderID string, payment domain.PaymentStatus, status domain.Status) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = ?, status = ?, updated_at = NOW()
		WHERE order_id = ? AND payment_status = ?`,
		payment, status, orderID, domain.PaymentPending,
	)
	if err != nil {
		return false, fmt.Errorf("update order state: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return true, nil
	}

	// Zero rows means either a resolved order (fine, idempotent no-op) or a
	// missing one (a correlation bug that must be surfaced).
	if _, err := r.FindByOrderID(ctx, orderID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id = ?`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) FindByUser(ctx context.Context, uid string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, uid, email, product_id, product_name, unit_price, quantity, status, payment_status, created_at, updated_at
		FROM orders WHERE uid = ? ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) FindAll(ctx context.Context, limit, skip int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 1<<31 - 1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, uid, email, product_id, product_name, unit_price, quantity, status, payment_status, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) noRowOutcome(ctx context.Context, orderID string) error {
	if _, err := r.FindByOrderID(ctx, orderID); err != nil {
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.OrderID, &o.User.UID, &o.User.Email,
		&o.Item.ProductID, &o.Item.Name, &o.Item.UnitPrice, &o.Item.Quantity,
		&o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
