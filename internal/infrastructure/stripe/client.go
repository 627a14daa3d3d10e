// Package stripe implements the checkout gateway against the provider's REST
// API: session creation on the way out, signed webhook events on the way in.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopnest/backend/internal/domain/checkout"
)

const (
	defaultBaseURL  = "https://api.stripe.com"
	sessionsPath    = "/v1/checkout/sessions"
	maxResponseSize = 1 << 20
)

// Client creates provider checkout sessions. One instance is shared across
// requests; per-call deadlines come from the context, not the http.Client.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

type Option func(*Client)

// WithBaseURL points the client at a different API host, used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		tracer: otel.Tracer("shopnest.checkout"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateSession requests a provider-hosted payment flow for one order. The
// metadata round-trips through the provider and comes back on every event.
func (c *Client) CreateSession(ctx context.Context, params checkout.SessionParams) (_ *checkout.Session, err error) {
	ctx, span := c.tracer.Start(ctx, "checkout.create_session",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", http.MethodPost),
			attribute.String("http.url", c.baseURL+sessionsPath),
			attribute.Int64("checkout.amount_cents", params.AmountCents),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	form := sessionForm(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", checkout.ErrSessionFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", checkout.ErrSessionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", checkout.ErrSessionFailed, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s (status %d)", checkout.ErrSessionFailed, apiErr.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", checkout.ErrSessionFailed, resp.StatusCode)
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", checkout.ErrSessionFailed, err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: incomplete session in response", checkout.ErrSessionFailed)
	}

	return &checkout.Session{ID: session.ID, URL: session.URL}, nil
}

func sessionForm(params checkout.SessionParams) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	// The order total is charged as a single line; quantity already factored in.
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", params.Description)
	}
	form.Set("line_items[0][quantity]", "1")
	form.Set("customer_email", params.CustomerEmail)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}
	return form
}
