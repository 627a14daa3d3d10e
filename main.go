package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appAuth "github.com/shopnest/backend/internal/application/auth"
	appCatalog "github.com/shopnest/backend/internal/application/catalog"
	appOrder "github.com/shopnest/backend/internal/application/order"
	"github.com/shopnest/backend/internal/application/reconcile"
	"github.com/shopnest/backend/internal/config"
	domainOrder "github.com/shopnest/backend/internal/domain/order"
	domainProduct "github.com/shopnest/backend/internal/domain/product"
	domainUser "github.com/shopnest/backend/internal/domain/user"
	"github.com/shopnest/backend/internal/infrastructure/id"
	"github.com/shopnest/backend/internal/infrastructure/memory"
	"github.com/shopnest/backend/internal/infrastructure/mysql"
	redisinfra "github.com/shopnest/backend/internal/infrastructure/redis"
	"github.com/shopnest/backend/internal/infrastructure/stripe"
	"github.com/shopnest/backend/internal/infrastructure/token"
	"github.com/shopnest/backend/internal/pkg/logging"
	httppresentation "github.com/shopnest/backend/internal/presentation/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	orderRepo, productRepo, userRepo := buildRepositories(cfg, baseLogger)

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDurations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	webhookOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Provider webhook events by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	prometheus.MustRegister(httpRequests, httpDurations, webhookOutcomes)

	idGenerator := id.NewGenerator()
	tokenManager := token.NewManager(cfg.JWTSecret, cfg.JWTRefreshSecret)
	gateway := stripe.NewClient(cfg.StripeSecretKey)
	verifier := stripe.NewWebhookVerifier(cfg.StripeWebhookSecret)

	authService := appAuth.NewService(userRepo, tokenManager, idGenerator)
	catalogService := appCatalog.NewService(productRepo, idGenerator)
	orderService := appOrder.NewService(
		orderRepo, productRepo, gateway, idGenerator,
		cfg.Currency, cfg.ClientURL, cfg.CheckoutTimeout,
	)

	reconcilerOpts := []reconcile.Option{reconcile.WithOutcomeCounter(webhookOutcomes)}
	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		reconcilerOpts = append(reconcilerOpts, reconcile.WithEventLog(redisinfra.NewEventLog(client)))
	}
	reconciler := reconcile.New(orderRepo, productRepo, reconcilerOpts...)

	handler := httppresentation.NewHandler(
		authService, catalogService, orderService, reconciler, verifier,
		baseLogger,
		httppresentation.Metrics{Requests: httpRequests, Durations: httpDurations},
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}

// buildRepositories selects MySQL-backed stores when a DSN is configured and
// falls back to in-memory stores for local development.
func buildRepositories(cfg *config.Config, logger *zap.Logger) (domainOrder.Repository, domainProduct.Repository, domainUser.Repository) {
	if cfg.MySQLDSN == "" {
		logger.Info("storage_memory")
		return memory.NewOrderRepository(), memory.NewProductRepository(), memory.NewUserRepository()
	}

	db, err := mysql.Open(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("mysql_connect_failed", zap.Error(err))
	}
	logger.Info("storage_mysql")
	return mysql.NewOrderRepository(db), mysql.NewProductRepository(db), mysql.NewUserRepository(db)
}
