package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syedosmanali/bizpulse-erp/internal/stock"
)

// LowStockScanJob walks every tenant's catalog, logs products at or
// below the threshold, and rewarms the snapshot cache so the first
// dashboard request after the scan is served hot.
type LowStockScanJob struct {
	Pool      *pgxpool.Pool
	Snapshots *stock.SnapshotCache
	Logger    *slog.Logger
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(pool *pgxpool.Pool, snapshots *stock.SnapshotCache, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{Pool: pool, Snapshots: snapshots, Logger: logger}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Snapshots == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Threshold < 0 {
		return asynq.SkipRetry
	}

	logger := j.logger()
	tenantIDs, err := j.listTenantIDs(ctx)
	if err != nil {
		logger.Error("list tenants", slog.Any("error", err))
		return err
	}

	flagged := 0
	for _, tenantID := range tenantIDs {
		products, err := j.Snapshots.LowStock(ctx, tenantID, payload.Threshold)
		if err != nil {
			logger.Error("scan tenant", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
			return err
		}
		for _, p := range products {
			flagged++
			logger.Warn("low stock",
				slog.Int64("tenant_id", tenantID),
				slog.Int64("product_id", p.ID),
				slog.String("name", p.Name),
				slog.Int64("stock", p.Stock),
			)
		}
	}

	logger.Info("completed low stock scan",
		slog.Int("tenants", len(tenantIDs)),
		slog.Int("flagged", flagged),
		slog.Int64("threshold", payload.Threshold),
	)
	return nil
}

func (j *LowStockScanJob) listTenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := j.Pool.Query(ctx, `SELECT id FROM tenants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}
