package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

// TxRepository exposes payment persistence inside the caller's transaction.
type TxRepository interface {
	InsertPayment(ctx context.Context, p Payment) error
	SumPayments(ctx context.Context, billID int64) (float64, error)
}

// DefaultEpsilon bounds acceptable float drift when comparing cumulative
// payments against a bill total.
const DefaultEpsilon = 0.01

// Tracker records payment events and derives a bill's payment status.
// Status is a pure function of (paid, total); the tracker holds no state
// beyond the overpayment tolerance.
type Tracker struct {
	epsilon float64
}

// NewTracker builds a Tracker.
func NewTracker(epsilon float64) *Tracker {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Tracker{epsilon: epsilon}
}

// StatusFor derives the payment status from amounts.
func (t *Tracker) StatusFor(paid, total float64) Status {
	switch {
	case paid <= 0:
		return StatusUnpaid
	case paid < total-t.epsilon:
		return StatusPartial
	default:
		return StatusPaid
	}
}

// Validate rejects non-positive amounts and overpayment beyond epsilon.
func (t *Tracker) Validate(amount, paid, total float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: payment amount must be positive", shared.ErrValidation)
	}
	if paid+amount > total+t.epsilon {
		return fmt.Errorf("%w: payment %.2f exceeds remaining balance %.2f", shared.ErrValidation, amount, total-paid)
	}
	return nil
}

// Record persists a payment event and returns the recomputed state. The
// cumulative paid amount is re-read inside the transaction so concurrent
// payments against the same bill serialize on the bill row.
func (t *Tracker) Record(ctx context.Context, repo TxRepository, in RecordInput) (Result, error) {
	if !in.Method.Valid() {
		return Result{}, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, in.Method)
	}
	if err := t.Validate(in.Amount, in.PaidAmount, in.TotalAmount); err != nil {
		return Result{}, err
	}
	if err := repo.InsertPayment(ctx, Payment{
		BillID:      in.BillID,
		Reference:   uuid.NewString(),
		Method:      in.Method,
		Amount:      in.Amount,
		ProcessedAt: time.Now().UTC(),
	}); err != nil {
		return Result{}, err
	}
	paid, err := repo.SumPayments(ctx, in.BillID)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Paid:   paid,
		Status: t.StatusFor(paid, in.TotalAmount),
		// A cheque is deposited, not cleared. Reporting excludes such
		// bills from revenue until ClearCheque flips the flag.
		ChequeDeposited: in.Method == MethodCheque,
	}, nil
}
