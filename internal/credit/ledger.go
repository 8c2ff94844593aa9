package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
)

// TxRepository exposes the credit mutations available inside a caller's
// transaction.
type TxRepository interface {
	GetCustomerForUpdate(ctx context.Context, customerID int64) (Customer, error)
	InsertTransaction(ctx context.Context, tx Transaction) error
	AdjustCustomerBalance(ctx context.Context, tenantID, customerID int64, balanceDelta, purchasesDelta float64) (float64, error)
	BillNet(ctx context.Context, billID, customerID int64) (float64, error)
}

// Ledger tracks customer outstanding balances through discrete, signed
// credit transactions tied to bills. All operations run inside the
// transaction owned by the orchestrating service; the FOR UPDATE read on
// the customer row serializes concurrent credit activity per customer.
type Ledger struct{}

// NewLedger builds a Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Charge books outstanding credit for a credit-bearing bill. Called at
// most once per bill, at creation. A configured credit limit (> 0) caps
// the customer's resulting balance.
func (l *Ledger) Charge(ctx context.Context, repo TxRepository, tenantID, customerID, billID int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: charge amount must be positive", shared.ErrValidation)
	}
	c, err := l.authorize(ctx, repo, tenantID, customerID)
	if err != nil {
		return err
	}
	if c.CreditLimit > 0 && c.CurrentBalance+amount > c.CreditLimit+payEpsilon {
		return fmt.Errorf("%w: charge %.2f exceeds credit limit %.2f (balance %.2f)", shared.ErrValidation, amount, c.CreditLimit, c.CurrentBalance)
	}
	if err := repo.InsertTransaction(ctx, Transaction{
		BillID:     billID,
		CustomerID: customerID,
		Type:       TransactionCharge,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return err
	}
	_, err = repo.AdjustCustomerBalance(ctx, tenantID, customerID, amount, amount)
	return err
}

// Settle records a payment against a bill's credit balance.
func (l *Ledger) Settle(ctx context.Context, repo TxRepository, tenantID, customerID, billID int64, amount, billCreditBalance float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: settlement amount must be positive", shared.ErrValidation)
	}
	if amount > billCreditBalance+payEpsilon {
		return fmt.Errorf("%w: settlement %.2f exceeds bill credit balance %.2f", shared.ErrValidation, amount, billCreditBalance)
	}
	if _, err := l.authorize(ctx, repo, tenantID, customerID); err != nil {
		return err
	}
	if err := repo.InsertTransaction(ctx, Transaction{
		BillID:     billID,
		CustomerID: customerID,
		Type:       TransactionPayment,
		Amount:     -amount,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return err
	}
	_, err := repo.AdjustCustomerBalance(ctx, tenantID, customerID, -amount, 0)
	return err
}

// Adjust books a signed correction for a bill, used when an editable bill
// is updated and its outstanding credit changes by a delta.
func (l *Ledger) Adjust(ctx context.Context, repo TxRepository, tenantID, customerID, billID int64, delta float64) error {
	if delta == 0 {
		return nil
	}
	if _, err := l.authorize(ctx, repo, tenantID, customerID); err != nil {
		return err
	}
	if err := repo.InsertTransaction(ctx, Transaction{
		BillID:     billID,
		CustomerID: customerID,
		Type:       TransactionAdjustment,
		Amount:     delta,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return err
	}
	purchasesDelta := delta
	if purchasesDelta < 0 {
		purchasesDelta = 0
	}
	_, err := repo.AdjustCustomerBalance(ctx, tenantID, customerID, delta, purchasesDelta)
	return err
}

// Reverse nets the bill's ledger entries to zero with one compensating
// adjustment; used on bill delete. Settled portions stay settled, so the
// adjustment covers only the remaining net.
func (l *Ledger) Reverse(ctx context.Context, repo TxRepository, tenantID, customerID, billID int64) error {
	if _, err := l.authorize(ctx, repo, tenantID, customerID); err != nil {
		return err
	}
	net, err := repo.BillNet(ctx, billID, customerID)
	if err != nil {
		return err
	}
	if net == 0 {
		return nil
	}
	if err := repo.InsertTransaction(ctx, Transaction{
		BillID:     billID,
		CustomerID: customerID,
		Type:       TransactionAdjustment,
		Amount:     -net,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return err
	}
	_, err = repo.AdjustCustomerBalance(ctx, tenantID, customerID, -net, 0)
	return err
}

func (l *Ledger) authorize(ctx context.Context, repo TxRepository, tenantID, customerID int64) (Customer, error) {
	c, err := repo.GetCustomerForUpdate(ctx, customerID)
	if err != nil {
		return Customer{}, err
	}
	if err := tenant.Authorize(tenantID, c.TenantID); err != nil {
		return Customer{}, err
	}
	return c, nil
}

// payEpsilon tolerates float drift when comparing settlements against a
// stored credit balance.
const payEpsilon = 0.01
