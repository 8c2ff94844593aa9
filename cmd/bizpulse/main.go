package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/syedosmanali/bizpulse-erp/internal/app"
	"github.com/syedosmanali/bizpulse-erp/internal/billing"
	"github.com/syedosmanali/bizpulse-erp/internal/credit"
	"github.com/syedosmanali/bizpulse-erp/internal/observability"
	"github.com/syedosmanali/bizpulse-erp/internal/payment"
	"github.com/syedosmanali/bizpulse-erp/internal/platform/cache"
	"github.com/syedosmanali/bizpulse-erp/internal/platform/db"
	"github.com/syedosmanali/bizpulse-erp/internal/shared"
	"github.com/syedosmanali/bizpulse-erp/internal/stock"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
	"github.com/syedosmanali/bizpulse-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	snapshotCache := cache.NewCache(redisClient, cfg.SnapshotTTL, nil)

	stockRepo := stock.NewRepository(pool)
	stockLedger := stock.NewLedger(stock.Config{AllowBackorder: cfg.AllowBackorder})
	stockSnapshots := stock.NewSnapshotCache(stockRepo, snapshotCache)

	creditRepo := credit.NewRepository(pool)
	creditLedger := credit.NewLedger()

	tracker := payment.NewTracker(payment.DefaultEpsilon)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(logger, billingRepo, stockLedger, creditLedger, tracker, idempotencyStore, auditLogger)

	metrics := observability.NewMetrics()

	billingHandler := billing.NewHandler(logger, billingService, metrics)
	stockHandler := stock.NewHandler(logger, stockRepo, stockSnapshots, cfg.LowStockFloor)
	creditHandler := credit.NewHandler(creditRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Pool:           pool,
		TenantResolver: tenant.NewRepository(pool),
		BillingHandler: billingHandler,
		StockHandler:   stockHandler,
		CreditHandler:  creditHandler,
		JobsHandler:    jobsHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
