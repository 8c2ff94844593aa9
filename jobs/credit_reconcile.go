package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/syedosmanali/bizpulse-erp/internal/credit"
	jobmetrics "github.com/syedosmanali/bizpulse-erp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CreditReconcileJob compares each customer's stored balance with the
// signed sum of their credit transactions and reports any drift. Drift
// means a write path bypassed the ledger and needs investigation; the
// job never mutates balances itself.
type CreditReconcileJob struct {
	Repo    *credit.Repository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCreditReconcileJob wires dependencies for the reconcile handler.
func NewCreditReconcileJob(repo *credit.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *CreditReconcileJob {
	return &CreditReconcileJob{Repo: repo, Logger: logger, Metrics: metrics}
}

// Handle processes credit reconcile tasks.
func (j *CreditReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("credit reconcile: handler not configured")
	}
	var payload CreditReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskCreditReconcile)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	started := time.Now()
	logger.Info("starting credit reconcile")

	tenantIDs, err := j.Repo.ListTenantIDs(ctx)
	if err != nil {
		resultErr = err
		logger.Error("list tenants", slog.Any("error", err))
		return resultErr
	}

	drifted := 0
	for _, tenantID := range tenantIDs {
		mismatches, err := j.Repo.FindBalanceMismatches(ctx, tenantID)
		if err != nil {
			resultErr = err
			logger.Error("scan tenant", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
			return resultErr
		}
		for _, m := range mismatches {
			drifted++
			logger.Warn("balance drift",
				slog.Int64("tenant_id", tenantID),
				slog.Int64("customer_id", m.CustomerID),
				slog.Float64("current_balance", m.CurrentBalance),
				slog.Float64("ledger_sum", m.LedgerSum),
			)
		}
	}

	j.metrics().AddDrift(drifted)
	logger.Info("completed credit reconcile",
		slog.Int("tenants", len(tenantIDs)),
		slog.Int("drifted", drifted),
		slog.Duration("duration", time.Since(started)),
	)
	return resultErr
}

func (j *CreditReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCreditReconcile))
	}
	return slog.Default().With(slog.String("job", TaskCreditReconcile))
}

func (j *CreditReconcileJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
