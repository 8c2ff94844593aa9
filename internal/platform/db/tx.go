package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return TranslateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TranslateError(fmt.Errorf("platform/db: commit tx: %w", err))
	}

	return nil
}

// TranslateError maps driver-level failures onto the shared taxonomy.
// Serialization failures and deadlocks become retryable conflicts.
func TranslateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.Message)
		}
	}
	return err
}
