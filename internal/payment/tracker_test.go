package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

type memoryPayments struct {
	payments []Payment
}

func (m *memoryPayments) InsertPayment(ctx context.Context, p Payment) error {
	m.payments = append(m.payments, p)
	return nil
}

func (m *memoryPayments) SumPayments(ctx context.Context, billID int64) (float64, error) {
	var sum float64
	for _, p := range m.payments {
		if p.BillID == billID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func TestStatusFor(t *testing.T) {
	tr := NewTracker(DefaultEpsilon)

	require.Equal(t, StatusUnpaid, tr.StatusFor(0, 100))
	require.Equal(t, StatusUnpaid, tr.StatusFor(-5, 100))
	require.Equal(t, StatusPartial, tr.StatusFor(40, 100))
	require.Equal(t, StatusPaid, tr.StatusFor(100, 100))
	// Within epsilon of the total counts as paid.
	require.Equal(t, StatusPaid, tr.StatusFor(99.995, 100))
	require.Equal(t, StatusPaid, tr.StatusFor(0.005, 0))
}

func TestValidateRejectsOverpayment(t *testing.T) {
	tr := NewTracker(DefaultEpsilon)

	require.NoError(t, tr.Validate(50, 40, 100))
	require.NoError(t, tr.Validate(60, 40, 100))

	err := tr.Validate(61, 40, 100)
	require.ErrorIs(t, err, shared.ErrValidation)

	err = tr.Validate(0, 0, 100)
	require.ErrorIs(t, err, shared.ErrValidation)

	err = tr.Validate(-10, 0, 100)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordAccumulatesAndDerivesStatus(t *testing.T) {
	tr := NewTracker(DefaultEpsilon)
	repo := &memoryPayments{}
	ctx := context.Background()

	res, err := tr.Record(ctx, repo, RecordInput{BillID: 1, Amount: 40, Method: MethodCash, TotalAmount: 100, PaidAmount: 0})
	require.NoError(t, err)
	require.InDelta(t, 40, res.Paid, 0.001)
	require.Equal(t, StatusPartial, res.Status)
	require.False(t, res.ChequeDeposited)

	res, err = tr.Record(ctx, repo, RecordInput{BillID: 1, Amount: 60, Method: MethodCard, TotalAmount: 100, PaidAmount: 40})
	require.NoError(t, err)
	require.InDelta(t, 100, res.Paid, 0.001)
	require.Equal(t, StatusPaid, res.Status)
}

func TestRecordChequeSetsDeposited(t *testing.T) {
	tr := NewTracker(DefaultEpsilon)
	repo := &memoryPayments{}

	res, err := tr.Record(context.Background(), repo, RecordInput{BillID: 7, Amount: 100, Method: MethodCheque, TotalAmount: 100, PaidAmount: 0})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, res.Status)
	require.True(t, res.ChequeDeposited)
}

func TestRecordRejectsUnknownMethod(t *testing.T) {
	tr := NewTracker(DefaultEpsilon)
	repo := &memoryPayments{}

	_, err := tr.Record(context.Background(), repo, RecordInput{BillID: 1, Amount: 10, Method: "bitcoin", TotalAmount: 100})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.payments)
}
