package billing

import (
	"context"

	"github.com/syedosmanali/bizpulse-erp/internal/credit"
	"github.com/syedosmanali/bizpulse-erp/internal/payment"
	"github.com/syedosmanali/bizpulse-erp/internal/stock"
)

// TxRepository exposes every persistence operation the orchestrator needs
// inside one database transaction. The Stock, Credit and Payments
// accessors return ledger repositories bound to the same transaction, so
// a failed bill never leaves a partial stock or credit effect behind.
type TxRepository interface {
	NextBillNumber(ctx context.Context, tenantID int64) (string, error)
	InsertBill(ctx context.Context, b Bill) (int64, error)
	InsertBillItems(ctx context.Context, billID int64, items []BillItem) error
	GetBillForUpdate(ctx context.Context, billID int64) (Bill, error)
	GetBillItems(ctx context.Context, billID int64) ([]BillItem, error)
	UpdateBill(ctx context.Context, b Bill) error
	DeleteBillItems(ctx context.Context, billID int64) error
	DeleteBill(ctx context.Context, billID int64) error

	Stock() stock.TxRepository
	Credit() credit.TxRepository
	Payments() payment.TxRepository
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBill(ctx context.Context, tenantID, billID int64) (*Bill, error)
	ListBills(ctx context.Context, tenantID int64, req ListBillsRequest) ([]Bill, error)
}
