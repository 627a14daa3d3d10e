package httppresentation

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shopnest/backend/internal/infrastructure/token"
	"github.com/shopnest/backend/internal/pkg/logging"
)

const headerRequestID = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withObservability wraps a route with the full chain:
// W3C trace extraction + server span -> request-scoped logger (X-Request-ID)
// -> RED metrics on the stable route template -> access log.
func (h *Handler) withObservability(route string, next http.Handler) http.Handler {
	tracer := otel.Tracer("shopnest.http")
	prop := otel.GetTextMapPropagator()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		rid := r.Header.Get(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(headerRequestID, rid)

		fields := []zap.Field{zap.String("request_id", rid)}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		reqLogger := h.log.With(fields...)
		ctx = logging.ContextWithLogger(ctx, reqLogger)

		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r.WithContext(ctx))

		elapsed := time.Since(start)
		statusLabel := strconv.Itoa(lrw.status)
		if h.requests != nil {
			h.requests.WithLabelValues(r.Method, route, statusLabel).Inc()
		}
		if h.durations != nil {
			h.durations.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		}

		reqLogger.Info("http_access",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("path", r.URL.Path),
			zap.Int("status", lrw.status),
			zap.Int64("latency_ms", elapsed.Milliseconds()),
		)
	})
}

type identityKey struct{}

func contextWithIdentity(ctx context.Context, id token.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFromContext(ctx context.Context) (token.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(token.Identity)
	return id, ok
}

// requireAuth verifies the bearer token and stores the caller identity on the
// context. When roles are given the identity must hold one of them.
func (h *Handler) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized access")
			return
		}

		identity, err := h.authService.Verify(raw)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized access")
			return
		}

		if len(roles) > 0 && !hasRole(identity.Role, roles) {
			writeMessage(w, http.StatusForbidden, "Access denied. You don't have permission to perform this action.")
			return
		}

		next(w, r.WithContext(contextWithIdentity(r.Context(), identity)))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

func hasRole(role string, allowed []string) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

// Metrics are created once in main and injected; middleware never registers
// its own vectors.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec
}
