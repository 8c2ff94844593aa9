package stock

import (
	"context"
	"fmt"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
)

// TxRepository exposes the stock mutations available inside a caller's
// transaction. The single-row UPDATE relies on the database row lock for
// the duration of the transaction; no application-level locking exists.
type TxRepository interface {
	ProductTenant(ctx context.Context, productID int64) (int64, error)
	AdjustStock(ctx context.Context, tenantID, productID, delta int64) (int64, error)
}

// Config groups ledger policy settings.
type Config struct {
	// AllowBackorder permits stock to go negative. Defaults to off; the
	// flag is resolved once at deployment via ALLOW_BACKORDER.
	AllowBackorder bool
}

// Ledger applies and reverts per-product quantity deltas as part of a
// bill's lifecycle. Every call runs inside the transaction owned by the
// orchestrating service.
type Ledger struct {
	allowBackorder bool
}

// NewLedger builds a Ledger.
func NewLedger(cfg Config) *Ledger {
	return &Ledger{allowBackorder: cfg.AllowBackorder}
}

// Reserve decrements stock for one line item. When backorders are
// disabled a resulting negative stock aborts the caller's transaction
// with ErrInsufficientStock.
func (l *Ledger) Reserve(ctx context.Context, repo TxRepository, tenantID int64, in ReserveInput) error {
	if in.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := l.authorize(ctx, repo, tenantID, in.ProductID); err != nil {
		return err
	}
	newStock, err := repo.AdjustStock(ctx, tenantID, in.ProductID, -in.Quantity)
	if err != nil {
		return err
	}
	if newStock < 0 && !l.allowBackorder {
		return fmt.Errorf("%w: product %d would drop to %d", shared.ErrInsufficientStock, in.ProductID, newStock)
	}
	return nil
}

// Release returns quantity to stock. No upper bound is enforced.
func (l *Ledger) Release(ctx context.Context, repo TxRepository, tenantID int64, in ReleaseInput) error {
	if in.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := l.authorize(ctx, repo, tenantID, in.ProductID); err != nil {
		return err
	}
	_, err := repo.AdjustStock(ctx, tenantID, in.ProductID, in.Quantity)
	return err
}

func (l *Ledger) authorize(ctx context.Context, repo TxRepository, tenantID, productID int64) error {
	owner, err := repo.ProductTenant(ctx, productID)
	if err != nil {
		return err
	}
	return tenant.Authorize(tenantID, owner)
}
