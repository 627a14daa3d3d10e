package httppresentation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appAuth "github.com/shopnest/backend/internal/application/auth"
	appCatalog "github.com/shopnest/backend/internal/application/catalog"
	appOrder "github.com/shopnest/backend/internal/application/order"
	"github.com/shopnest/backend/internal/application/reconcile"
	"github.com/shopnest/backend/internal/domain/checkout"
	domainOrder "github.com/shopnest/backend/internal/domain/order"
	domainProduct "github.com/shopnest/backend/internal/domain/product"
	domainUser "github.com/shopnest/backend/internal/domain/user"
	"github.com/shopnest/backend/internal/pkg/logging"
)

const (
	componentHTTPHandler = "http_server"
	signatureHeader      = "Stripe-Signature"
	maxWebhookBody       = 1 << 20
)

type Handler struct {
	authService    *appAuth.Service
	catalogService *appCatalog.Service
	orderService   *appOrder.Service
	reconciler     *reconcile.Reconciler
	verifier       checkout.EventVerifier

	log       *zap.Logger
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func NewHandler(
	authSvc *appAuth.Service,
	catalogSvc *appCatalog.Service,
	orderSvc *appOrder.Service,
	reconciler *reconcile.Reconciler,
	verifier checkout.EventVerifier,
	logger *zap.Logger,
	metrics Metrics,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		authService:    authSvc,
		catalogService: catalogSvc,
		orderService:   orderSvc,
		reconciler:     reconciler,
		verifier:       verifier,
		log:            logger.With(zap.String("component", componentHTTPHandler)),
		requests:       metrics.Requests,
		durations:      metrics.Durations,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.route(mux, http.MethodPost, "/api/auth/register", h.handleRegister)
	h.route(mux, http.MethodPost, "/api/auth/login", h.handleLogin)

	h.route(mux, http.MethodPost, "/api/products", h.requireAuth(h.handleCreateProduct, string(domainUser.RoleAdmin)))
	h.route(mux, http.MethodGet, "/api/products", h.handleListProducts)
	h.route(mux, http.MethodGet, "/api/products/{id}", h.handleGetProduct)

	h.route(mux, http.MethodPost, "/api/orders", h.requireAuth(h.handleCreateOrder))
	h.route(mux, http.MethodGet, "/api/orders", h.requireAuth(h.handleListAllOrders, string(domainUser.RoleAdmin)))
	h.route(mux, http.MethodGet, "/api/orders/customer", h.requireAuth(h.handleUserOrders))

	// The webhook reads the raw request body itself: signature verification
	// needs the exact bytes as sent, so no decoding happens before it.
	h.route(mux, http.MethodPost, "/api/webhook", h.handleWebhook)

	h.route(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) route(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.Handle(method+" "+route, h.withObservability(method+" "+route, handler))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image"`
	Role     string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields: name, email, password")
		return
	}

	result, err := h.authService.Register(r.Context(), appAuth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Image:    req.Image,
		Role:     domainUser.Role(req.Role),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"user":    result.User,
		"tokens":  result.Tokens,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged in successfully",
		"user":    result.User,
		"tokens":  result.Tokens,
	})
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"imageUrl"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.catalogService.Create(r.Context(), appCatalog.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Product created successfully",
		"product": p,
	})
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domainProduct.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		MinPrice: parseInt64(q.Get("minPrice")),
		MaxPrice: parseInt64(q.Get("maxPrice")),
		SortBy:   q.Get("sortBy"),
		Order:    domainProduct.SortOrder(q.Get("sortOrder")),
		Limit:    parseInt(q.Get("limit")),
		Skip:     parseInt(q.Get("skip")),
	}

	products, err := h.catalogService.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Products retrieved successfully",
		"products": products,
		"total":    len(products),
	})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalogService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Product retrieved successfully",
		"product": p,
	})
}

type createOrderRequest struct {
	ProductID string `json:"productID"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.orderService.CreateOrder(r.Context(), appOrder.CreateOrderInput{
		UID:       identity.UID,
		Email:     identity.Email,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Order created successfully. Proceed to payment.",
		"order":             result.Order,
		"stripeSessionId":   result.SessionID,
		"stripeCheckoutUrl": result.CheckoutURL,
	})
}

func (h *Handler) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	orders, err := h.orderService.ListForUser(r.Context(), identity.UID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User orders retrieved successfully",
		"orders":  orders,
	})
}

func (h *Handler) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.orderService.ListAll(r.Context(), parseInt(q.Get("limit")), parseInt(q.Get("skip")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All orders retrieved successfully",
		"orders":  orders,
		"total":   len(orders),
	})
}

// handleWebhook is the raw-bytes intake boundary: verify authenticity first,
// then dispatch the typed event into the reconciler. A non-2xx response tells
// the provider to redeliver on its own backoff schedule.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Unable to read request body")
		return
	}

	event, err := h.verifier.ConstructEvent(payload, r.Header.Get(signatureHeader))
	if err != nil {
		logger.Warn("webhook_signature_rejected", zap.Error(err))
		writeMessage(w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	if err := h.reconciler.HandleEvent(r.Context(), event); err != nil {
		logger.Error("webhook_processing_failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Webhook handler failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainProduct.ErrNotFound),
		errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainUser.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domainProduct.ErrInsufficientStock):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, domainProduct.ErrInvalidID),
		errors.Is(err, domainProduct.ErrValidation),
		errors.Is(err, domainOrder.ErrInvalidQuantity),
		errors.Is(err, domainUser.ErrAlreadyExists),
		errors.Is(err, domainUser.ErrValidation),
		errors.Is(err, appAuth.ErrWeakPassword):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, appAuth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, checkout.ErrSessionFailed):
		writeMessage(w, http.StatusBadGateway, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
