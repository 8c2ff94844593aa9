package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

// IdempotencyCleanupJob prunes idempotency keys past their retention
// window. Keys only guard create retries; once the window passes a
// replay would be a new request anyway.
type IdempotencyCleanupJob struct {
	Store  *shared.IdempotencyStore
	Logger *slog.Logger
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Logger: logger}
}

// Handle processes idempotency cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	olderThan := payload.OlderThan
	if olderThan <= 0 {
		olderThan = 24 * time.Hour
	}
	if err := j.Store.Cleanup(ctx, olderThan); err != nil {
		j.logger().Error("cleanup keys", slog.Any("error", err))
		return err
	}
	j.logger().Info("pruned idempotency keys", slog.Duration("older_than", olderThan))
	return nil
}

func (j *IdempotencyCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskIdempotencyCleanup))
	}
	return slog.Default().With(slog.String("job", TaskIdempotencyCleanup))
}
