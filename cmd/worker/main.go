package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/syedosmanali/bizpulse-erp/internal/app"
	"github.com/syedosmanali/bizpulse-erp/internal/credit"
	"github.com/syedosmanali/bizpulse-erp/internal/platform/cache"
	"github.com/syedosmanali/bizpulse-erp/internal/platform/db"
	"github.com/syedosmanali/bizpulse-erp/internal/shared"
	"github.com/syedosmanali/bizpulse-erp/internal/stock"
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
		logger.Error("connect database", slog.Any("error", err))
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

	snapshotCache := cache.NewCache(redisClient, cfg.SnapshotTTL, nil)

	stockRepo := stock.NewRepository(pool)
	stockSnapshots := stock.NewSnapshotCache(stockRepo, snapshotCache)
	creditRepo := credit.NewRepository(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	reconcileJob := jobs.NewCreditReconcileJob(creditRepo, logger, nil)
	lowStockJob := jobs.NewLowStockScanJob(pool, stockSnapshots, logger)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idempotencyStore, logger)

	reconcileTask, err := jobs.NewCreditReconcileTask(time.Now().UTC())
	if err != nil {
		logger.Error("build reconcile task", slog.Any("error", err))
		os.Exit(1)
	}
	lowStockTask, err := jobs.NewLowStockScanTask(cfg.LowStockFloor)
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyTTL)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:          asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:             logger,
		CreditReconcile:    reconcileJob,
		LowStockScan:       lowStockJob,
		IdempotencyCleanup: cleanupJob,
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
