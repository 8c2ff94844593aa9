package credit

import (
	"fmt"
	"time"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

// TransactionType enumerates credit ledger entry kinds.
type TransactionType string

const (
	// TransactionCharge books outstanding credit when a credit bill is created.
	TransactionCharge TransactionType = "charge"
	// TransactionPayment settles part or all of a bill's credit balance.
	TransactionPayment TransactionType = "payment"
	// TransactionAdjustment compensates a charge when a bill is deleted or edited.
	TransactionAdjustment TransactionType = "adjustment"
)

// Transaction is one append-only audit record against a customer's
// balance. Amounts are signed: charges positive, payments negative,
// adjustments either way. The customer's current balance must equal the
// sum of these amounts at all times.
type Transaction struct {
	ID         int64           `json:"id"`
	BillID     int64           `json:"bill_id"`
	CustomerID int64           `json:"customer_id"`
	Type       TransactionType `json:"transaction_type"`
	Amount     float64         `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Customer carries the credit view of a customer. CurrentBalance is
// derived and mutated only by the Ledger.
type Customer struct {
	ID             int64   `json:"id"`
	TenantID       int64   `json:"tenant_id"`
	Name           string  `json:"name"`
	CreditLimit    float64 `json:"credit_limit"`
	CurrentBalance float64 `json:"current_balance"`
	TotalPurchases float64 `json:"total_purchases"`
}

// BalanceMismatch reports a customer whose stored balance drifted from
// the signed transaction sum.
type BalanceMismatch struct {
	CustomerID     int64   `json:"customer_id"`
	CurrentBalance float64 `json:"current_balance"`
	LedgerSum      float64 `json:"ledger_sum"`
}

// ErrCustomerNotFound indicates the customer row is missing.
var ErrCustomerNotFound = fmt.Errorf("credit: customer %w", shared.ErrNotFound)
