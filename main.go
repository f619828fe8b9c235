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
	"go.uber.org/zap"

	appOrder "github.com/hangart/hangart/internal/application/order"
	appPayment "github.com/hangart/hangart/internal/application/payment"
	"github.com/hangart/hangart/internal/config"
	domartwork "github.com/hangart/hangart/internal/domain/artwork"
	"github.com/hangart/hangart/internal/domain/gateway"
	domorder "github.com/hangart/hangart/internal/domain/order"
	dompayment "github.com/hangart/hangart/internal/domain/payment"
	fulfillworker "github.com/hangart/hangart/internal/infrastructure/fulfillment/worker"
	"github.com/hangart/hangart/internal/infrastructure/gatewaysim"
	"github.com/hangart/hangart/internal/infrastructure/memory"
	"github.com/hangart/hangart/internal/infrastructure/momo"
	"github.com/hangart/hangart/internal/infrastructure/observability/oteltrace"
	"github.com/hangart/hangart/internal/infrastructure/observability/prometrics"
	"github.com/hangart/hangart/internal/infrastructure/observability/telemetry"
	"github.com/hangart/hangart/internal/infrastructure/observability/zaplogger"
	"github.com/hangart/hangart/internal/infrastructure/outbox"
	"github.com/hangart/hangart/internal/infrastructure/persistence/postgres"
	"github.com/hangart/hangart/internal/observability"
	"github.com/hangart/hangart/internal/pkg/logging"
	httppresentation "github.com/hangart/hangart/internal/presentation/http"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	logger := zaplogger.Wrap(baseLogger)

	registry := prometrics.New(cfg.ServiceName, "")
	counters := map[string]observability.Counter{
		observability.MHTTPRequests: registry.Counter(
			observability.MHTTPRequests, "Total HTTP requests.", "method", "route", "status"),
		observability.MPaymentInitiations: registry.Counter(
			observability.MPaymentInitiations, "Payment transactions opened.", "method"),
		observability.MReconciliations: registry.Counter(
			observability.MReconciliations, "Reconciliation outcomes applied.", "entry", "outcome"),
		observability.MFulfillments: registry.Counter(
			observability.MFulfillments, "Order fulfillment attempts.", "outcome"),
		observability.MGatewayRequests: registry.Counter(
			observability.MGatewayRequests, "Gateway round-trips.", "op", "outcome"),
	}
	histograms := map[string]observability.Histogram{
		observability.MHTTPRequestDuration: registry.Histogram(
			observability.MHTTPRequestDuration, "HTTP request latency.", prometheus.DefBuckets,
			"method", "route", "status"),
		observability.MGatewayDuration: registry.Histogram(
			observability.MGatewayDuration, "Gateway round-trip latency.", prometheus.DefBuckets,
			"op"),
	}
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		paymentRepo dompayment.Repository
		orderRepo   domorder.Repository
		artworkRepo domartwork.Repository
	)
	if cfg.DatabaseDSN != "" {
		db, err := postgres.Open(cfg.DatabaseDSN)
		if err != nil {
			baseLogger.Fatal("database_open_failed", zap.Error(err))
		}
		paymentRepo = postgres.NewPaymentRepository(db)
		orderRepo = postgres.NewOrderRepository(db)
		artworkRepo = postgres.NewArtworkRepository(db)
		logger.Info("store_selected", observability.F("store", "postgres"))
	} else {
		paymentRepo = memory.NewPaymentRepository()
		orderRepo = memory.NewOrderRepository()
		artworkRepo = memory.NewArtworkRepository()
		logger.Info("store_selected", observability.F("store", "memory"))
	}

	// Gateway: the real client only when credentials are present; the
	// simulator otherwise. Selected exactly once, here.
	var gw gateway.Client
	momoClient := momo.New(momo.Config{
		BaseURL:           cfg.MomoBaseURL,
		SubscriptionKey:   cfg.MomoSubscriptionKey,
		APIUser:           cfg.MomoAPIUser,
		APIKey:            cfg.MomoAPIKey,
		TargetEnvironment: cfg.MomoTargetEnvironment,
		Currency:          cfg.MomoCurrency,
	}, logger)
	if momoClient.Configured() {
		gw = momoClient
		logger.Info("gateway_selected", observability.F("gateway", "momo"))
	} else {
		gw = gatewaysim.New(cfg.SimWarmup)
		logger.Info("gateway_selected", observability.F("gateway", "simulator"))
	}

	bus := outbox.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	paymentService := appPayment.NewService(paymentRepo, orderRepo, artworkRepo, gw, bus, logger, tel)
	orderService := appOrder.NewService(orderRepo, artworkRepo, logger, tel)

	retryWorker := fulfillworker.New(paymentService, logger)
	retryWorker.Register(bus)

	handler := httppresentation.NewHandler(orderService, paymentService, cfg.MomoWebhookSecret, logger, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", observability.F("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		logger.Info("http_server_stopped")
	}
}
