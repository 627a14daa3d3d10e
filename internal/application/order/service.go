// Package order implements the order-creation workflow: validate the
// purchase, persist the order, open a provider checkout session, hand the
// buyer a redirect target. Stock is never touched here; it is only
// decremented once the provider confirms payment.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopnest/backend/internal/domain/checkout"
	domain "github.com/shopnest/backend/internal/domain/order"
	domprod "github.com/shopnest/backend/internal/domain/product"
	"github.com/shopnest/backend/internal/pkg/logging"
)

const descriptionLimit = 100

type IDGenerator interface {
	NewOrderID() string
}

type Service struct {
	orders   domain.Repository
	products domprod.Repository
	gateway  checkout.Gateway
	ids      IDGenerator

	currency        string
	clientURL       string
	checkoutTimeout time.Duration
}

func NewService(
	orders domain.Repository,
	products domprod.Repository,
	gateway checkout.Gateway,
	ids IDGenerator,
	currency, clientURL string,
	checkoutTimeout time.Duration,
) *Service {
	if checkoutTimeout <= 0 {
		checkoutTimeout = 10 * time.Second
	}
	return &Service{
		orders:          orders,
		products:        products,
		gateway:         gateway,
		ids:             ids,
		currency:        currency,
		clientURL:       clientURL,
		checkoutTimeout: checkoutTimeout,
	}
}

type CreateOrderInput struct {
	UID       string
	Email     string
	ProductID string
	Quantity  int
}

type CreateOrderResult struct {
	Order       *domain.Order
	SessionID   string
	CheckoutURL string
}

// CreateOrder runs the purchase workflow. The order is persisted before the
// session call so the reconciler can always resolve the orderID once any
// provider event arrives; if the session cannot be created the order is
// rolled back and the caller gets a terminal error.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))
	logger.Info("create_order_start",
		zap.String("uid", input.UID),
		zap.String("product_id", input.ProductID),
		zap.Int("quantity", input.Quantity),
	)

	if input.UID == "" || input.Email == "" {
		return nil, errors.New("order: buyer identity is required")
	}
	if !domprod.ValidID(input.ProductID) {
		return nil, domprod.ErrInvalidID
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	p, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	// Advisory point-in-time check only; the hard guarantee is the
	// conditional decrement at payment confirmation.
	if quantity > p.Quantity {
		return nil, domprod.ErrInsufficientStock
	}

	orderID := s.ids.NewOrderID()
	entity, err := domain.New(orderID, domain.UserRef{UID: input.UID, Email: input.Email}, domain.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.Insert(ctx, entity); err != nil {
		logger.Error("order_insert_failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	session, err := s.createSession(ctx, entity, p)
	if err != nil {
		logger.Error("checkout_session_failed", zap.String("order_id", orderID), zap.Error(err))
		s.rollback(ctx, orderID, logger)
		return nil, err
	}

	logger.Info("create_order_success",
		zap.String("order_id", orderID),
		zap.String("session_id", session.ID),
	)
	return &CreateOrderResult{
		Order:       entity,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

func (s *Service) createSession(ctx context.Context, o *domain.Order, p *domprod.Product) (*checkout.Session, error) {
	description := p.Description
	if len(description) > descriptionLimit {
		description = description[:descriptionLimit]
	}

	ctx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()

	return s.gateway.CreateSession(ctx, checkout.SessionParams{
		AmountCents:   o.Total(),
		Currency:      s.currency,
		ProductName:   p.Name,
		Description:   description,
		CustomerEmail: o.User.Email,
		Metadata: map[string]string{
			"orderID":   o.OrderID,
			"productID": p.ID,
		},
		SuccessURL: s.clientURL + "/order-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.clientURL + "/order-cancel",
	})
}

// rollback removes the just-inserted order so a failed session call cannot
// strand a record the reconciler can never close.
func (s *Service) rollback(ctx context.Context, orderID string, logger *zap.Logger) {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		logger.Error("order_rollback_failed", zap.String("order_id", orderID), zap.Error(err))
	}
}

// ListForUser returns the caller's own orders, newest first.
func (s *Service) ListForUser(ctx context.Context, uid string) ([]*domain.Order, error) {
	if uid == "" {
		return nil, errors.New("order: uid is required")
	}
	return s.orders.FindByUser(ctx, uid)
}

// ListAll returns orders across all users for admin review.
func (s *Service) ListAll(ctx context.Context, limit, skip int) ([]*domain.Order, error) {
	if skip < 0 {
		skip = 0
	}
	return s.orders.FindAll(ctx, limit, skip)
}
