package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskCreditReconcile verifies customer balances against the credit ledger.
	TaskCreditReconcile = "credit:reconcile"
	// TaskLowStockScan warms the low-stock snapshot for every tenant.
	TaskLowStockScan = "stock:lowscan"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// CreditReconcilePayload carries scheduling metadata for a reconcile run.
type CreditReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewCreditReconcileTask constructs an Asynq task for ledger reconciliation.
func NewCreditReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(CreditReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCreditReconcile, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload carries the threshold used for the scan.
type LowStockScanPayload struct {
	Threshold int64 `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task for the low-stock scan.
func NewLowStockScanTask(threshold int64) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload carries the retention window for key pruning.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key pruning.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
