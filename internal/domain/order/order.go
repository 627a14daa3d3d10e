package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrConflict        = errors.New("order: already exists")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("order: unit price must be zero or greater")
)

// Status tracks fulfillment progress.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCancelled  Status = "cancelled"
	StatusDelivered  Status = "delivered"
)

// PaymentStatus tracks the provider-reported payment outcome.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentProcessing PaymentStatus = "processing"
)

// UserRef identifies the purchasing user.
type UserRef struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// LineItem is a snapshot of the purchased product taken at order-creation
// time. It is a value copy: later edits to the catalog must not alter
// historical orders.
type LineItem struct {
	ProductID string `json:"productID"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

type Order struct {
	OrderID       string        `json:"orderID"`
	User          UserRef       `json:"userInfo"`
	Item          LineItem      `json:"product"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func New(orderID string, user UserRef, item LineItem) (*Order, error) {
	if item.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if item.UnitPrice < 0 {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	return &Order{
		OrderID:       orderID,
		User:          user,
		Item:          item,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Total is the amount charged for the order, in the smallest currency unit.
func (o *Order) Total() int64 {
	return o.Item.UnitPrice * int64(o.Item.Quantity)
}

// Resolved reports whether the payment has reached a terminal state.
// Resolved orders ignore any further provider events.
func (o *Order) Resolved() bool {
	return o.PaymentStatus != PaymentPending
}

// MarkPaid transitions a pending order to paid/processing. It reports false
// when the order is already resolved, making duplicate and late success
// events no-ops.
func (o *Order) MarkPaid() bool {
	if o.Resolved() {
		return false
	}
	o.PaymentStatus = PaymentPaid
	o.Status = StatusProcessing
	o.touch()
	return true
}

// MarkExpired transitions a pending order to cancelled/cancelled.
func (o *Order) MarkExpired() bool {
	if o.Resolved() {
		return false
	}
	o.PaymentStatus = PaymentCancelled
	o.Status = StatusCancelled
	o.touch()
	return true
}

// MarkPaymentFailed records a failed asynchronous payment for a pending order.
func (o *Order) MarkPaymentFailed() bool {
	if o.Resolved() {
		return false
	}
	o.PaymentStatus = PaymentFailed
	o.touch()
	return true
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
