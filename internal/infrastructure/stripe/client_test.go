package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopnest/backend/internal/domain/checkout"
)

func sampleParams() checkout.SessionParams {
	return checkout.SessionParams{
		AmountCents:   14997,
		Currency:      "usd",
		ProductName:   "Mechanical Keyboard",
		Description:   "A sturdy mechanical keyboard.",
		CustomerEmail: "buyer@example.com",
		Metadata: map[string]string{
			"orderID":   "ORD-abcdef123456",
			"productID": "64f1b2c3d4e5f60718293a4b",
		},
		SuccessURL: "http://localhost:3000/order-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:3000/order-cancel",
	}
}

func TestCreateSession_Success(t *testing.T) {
	var gotAuth string
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{
			"id":  "cs_test_1",
			"url": "https://checkout.stripe.com/pay/cs_test_1",
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_key", WithBaseURL(server.URL))
	session, err := client.CreateSession(context.Background(), sampleParams())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if session.ID != "cs_test_1" || session.URL == "" {
		t.Errorf("session = %+v", session)
	}
	if gotAuth != "Bearer sk_test_key" {
		t.Errorf("authorization header = %q", gotAuth)
	}

	form := map[string]string{
		"mode": "payment",
		"line_items[0][price_data][unit_amount]": "14997",
		"line_items[0][quantity]":                "1",
		"metadata[orderID]":                      "ORD-abcdef123456",
		"metadata[productID]":                    "64f1b2c3d4e5f60718293a4b",
		"customer_email":                         "buyer@example.com",
	}
	for key, want := range form {
		values := gotForm[key]
		if len(values) != 1 || values[0] != want {
			t.Errorf("form[%s] = %v, want %s", key, values, want)
		}
	}
}

func TestCreateSession_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Your card was declined."},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_key", WithBaseURL(server.URL))
	_, err := client.CreateSession(context.Background(), sampleParams())
	if !errors.Is(err, checkout.ErrSessionFailed) {
		t.Fatalf("expected ErrSessionFailed, got %v", err)
	}
}

func TestCreateSession_IncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "cs_test_1"})
	}))
	defer server.Close()

	client := NewClient("sk_test_key", WithBaseURL(server.URL))
	_, err := client.CreateSession(context.Background(), sampleParams())
	if !errors.Is(err, checkout.ErrSessionFailed) {
		t.Fatalf("expected ErrSessionFailed, got %v", err)
	}
}

func TestCreateSession_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("sk_test_key", WithBaseURL(server.URL))
	_, err := client.CreateSession(ctx, sampleParams())
	if !errors.Is(err, checkout.ErrSessionFailed) {
		t.Fatalf("expected ErrSessionFailed, got %v", err)
	}
}
