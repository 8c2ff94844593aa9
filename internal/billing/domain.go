package billing

import (
	"fmt"
	"time"

	"github.com/syedosmanali/bizpulse-erp/internal/payment"
	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

// BillStatus tracks the editability of a bill. Draft bills may be
// updated; finalized bills are append-only through payments and credit
// settlements.
type BillStatus string

const (
	BillStatusDraft BillStatus = "draft"
	BillStatusFinal BillStatus = "final"
)

// Bill is a single sale transaction with line items, totals and a
// derived payment state. Invariants:
//
//	total_amount == subtotal + tax_amount - discount_amount  (2dp)
//	credit_balance == total_amount - credit_paid_amount      (credit bills)
//	credit_balance == 0                                      (otherwise)
type Bill struct {
	ID               int64          `json:"id"`
	TenantID         int64          `json:"tenant_id"`
	Number           string         `json:"bill_number"`
	CustomerID       *int64         `json:"customer_id,omitempty"`
	Items            []BillItem     `json:"items,omitempty"`
	Subtotal         float64        `json:"subtotal"`
	TaxAmount        float64        `json:"tax_amount"`
	DiscountAmount   float64        `json:"discount_amount"`
	TotalAmount      float64        `json:"total_amount"`
	PaymentMethod    payment.Method `json:"payment_method"`
	IsCredit         bool           `json:"is_credit"`
	PaymentStatus    payment.Status `json:"payment_status"`
	CreditPaidAmount float64        `json:"credit_paid_amount"`
	CreditBalance    float64        `json:"credit_balance"`
	ChequeDeposited  bool           `json:"cheque_deposited"`
	Status           BillStatus     `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// BillItem is one sale line, owned exclusively by its bill.
type BillItem struct {
	ID         int64   `json:"id"`
	BillID     int64   `json:"bill_id"`
	ProductID  int64   `json:"product_id"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	TaxRate    float64 `json:"tax_rate"`
}

// ErrBillNotFound indicates the bill row is missing.
var ErrBillNotFound = fmt.Errorf("billing: bill %w", shared.ErrNotFound)

// ErrNotEditable indicates the bill left its draft state.
var ErrNotEditable = fmt.Errorf("%w: bill is not editable", shared.ErrValidation)
