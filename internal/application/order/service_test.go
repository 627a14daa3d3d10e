package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopnest/backend/internal/domain/checkout"
	domain "github.com/shopnest/backend/internal/domain/order"
	domprod "github.com/shopnest/backend/internal/domain/product"
	"github.com/shopnest/backend/internal/infrastructure/memory"
)

const testProductID = "64f1b2c3d4e5f60718293a4b"

type fakeGateway struct {
	err      error
	calls    int
	lastArgs checkout.SessionParams
}

func (g *fakeGateway) CreateSession(_ context.Context, params checkout.SessionParams) (*checkout.Session, error) {
	g.calls++
	g.lastArgs = params
	if g.err != nil {
		return nil, g.err
	}
	return &checkout.Session{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

type fixedIDs struct{}

func (fixedIDs) NewOrderID() string { return "ORD-abcdef123456" }

func newTestService(t *testing.T, stock int, gateway *fakeGateway) (*Service, *memory.OrderRepository) {
	t.Helper()

	orders := memory.NewOrderRepository()
	products := memory.NewProductRepository()

	p, err := domprod.New(testProductID, "Mechanical Keyboard", "A sturdy mechanical keyboard.", "electronics", "", "", 4999, stock)
	if err != nil {
		t.Fatalf("new product: %v", err)
	}
	if err := products.Insert(context.Background(), p); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	svc := NewService(orders, products, gateway, fixedIDs{}, "usd", "http://localhost:3000", time.Second)
	return svc, orders
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		UID:       "u-1",
		Email:     "buyer@example.com",
		ProductID: testProductID,
		Quantity:  3,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	gateway := &fakeGateway{}
	svc, orders := newTestService(t, 5, gateway)

	result, err := svc.CreateOrder(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if result.Order.Status != domain.StatusPending || result.Order.PaymentStatus != domain.PaymentPending {
		t.Errorf("expected pending/pending, got %s/%s", result.Order.Status, result.Order.PaymentStatus)
	}
	if result.CheckoutURL == "" || result.SessionID == "" {
		t.Error("expected redirect target and session id")
	}

	stored, err := orders.FindByOrderID(context.Background(), result.Order.OrderID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if stored.Item.Quantity != 3 || stored.Item.UnitPrice != 4999 {
		t.Errorf("line item snapshot wrong: %+v", stored.Item)
	}

	// Total, not the per-unit price, goes to the gateway; metadata carries
	// the correlation keys the provider echoes back.
	if gateway.lastArgs.AmountCents != 3*4999 {
		t.Errorf("expected amount %d, got %d", 3*4999, gateway.lastArgs.AmountCents)
	}
	if gateway.lastArgs.Metadata["orderID"] != result.Order.OrderID {
		t.Errorf("metadata orderID missing: %v", gateway.lastArgs.Metadata)
	}
	if gateway.lastArgs.Metadata["productID"] != testProductID {
		t.Errorf("metadata productID missing: %v", gateway.lastArgs.Metadata)
	}
}

func TestCreateOrder_NoStockMutation(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _ := newTestService(t, 5, gateway)
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, validInput()); err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Stock stays untouched until payment is confirmed by the provider.
	products := svc.products
	p, err := products.GetByID(ctx, testProductID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.Quantity != 5 {
		t.Errorf("creation mutated stock: %d", p.Quantity)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	gateway := &fakeGateway{}
	svc, orders := newTestService(t, 1, gateway)

	input := validInput()
	input.Quantity = 2

	_, err := svc.CreateOrder(context.Background(), input)
	if !errors.Is(err, domprod.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// No order row, no session call.
	if _, err := orders.FindByOrderID(context.Background(), "ORD-abcdef123456"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("order was persisted despite rejection")
	}
	if gateway.calls != 0 {
		t.Errorf("gateway called %d times for a rejected order", gateway.calls)
	}
}

func TestCreateOrder_MalformedProductID(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _ := newTestService(t, 5, gateway)

	input := validInput()
	input.ProductID = "not-a-valid-id"

	_, err := svc.CreateOrder(context.Background(), input)
	if !errors.Is(err, domprod.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _ := newTestService(t, 5, gateway)

	input := validInput()
	input.ProductID = "000000000000000000000000"

	_, err := svc.CreateOrder(context.Background(), input)
	if !errors.Is(err, domprod.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOrder_DefaultsQuantityToOne(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _ := newTestService(t, 5, gateway)

	input := validInput()
	input.Quantity = 0

	result, err := svc.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if result.Order.Item.Quantity != 1 {
		t.Errorf("expected quantity defaulted to 1, got %d", result.Order.Item.Quantity)
	}
}

func TestCreateOrder_GatewayFailureRollsBack(t *testing.T) {
	gateway := &fakeGateway{err: checkout.ErrSessionFailed}
	svc, orders := newTestService(t, 5, gateway)

	_, err := svc.CreateOrder(context.Background(), validInput())
	if !errors.Is(err, checkout.ErrSessionFailed) {
		t.Fatalf("expected ErrSessionFailed, got %v", err)
	}

	// The order must not be left stranded in a state the reconciler can
	// never close.
	if _, err := orders.FindByOrderID(context.Background(), "ORD-abcdef123456"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("order left behind after session failure")
	}
}

func TestListForUser_OnlyOwnOrders(t *testing.T) {
	gateway := &fakeGateway{}
	svc, orders := newTestService(t, 5, gateway)
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, validInput()); err != nil {
		t.Fatalf("create order: %v", err)
	}

	other, _ := domain.New("ORD-999999999999", domain.UserRef{UID: "u-2", Email: "other@example.com"}, domain.LineItem{
		ProductID: testProductID, Name: "Mechanical Keyboard", UnitPrice: 4999, Quantity: 1,
	})
	if err := orders.Insert(ctx, other); err != nil {
		t.Fatalf("insert other order: %v", err)
	}

	mine, err := svc.ListForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(mine) != 1 || mine[0].User.UID != "u-1" {
		t.Errorf("expected exactly the caller's order, got %d", len(mine))
	}
}
