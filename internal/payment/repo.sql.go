package payment

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxRepo implements TxRepository over a pgx transaction.
type TxRepo struct {
	tx pgx.Tx
}

// NewTxRepo wraps an open transaction.
func NewTxRepo(tx pgx.Tx) *TxRepo {
	return &TxRepo{tx: tx}
}

// InsertPayment appends a payment row.
func (r *TxRepo) InsertPayment(ctx context.Context, p Payment) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO payments (bill_id, reference, method, amount, processed_at) VALUES ($1, $2, $3, $4, $5)`,
		p.BillID, p.Reference, string(p.Method), p.Amount, p.ProcessedAt)
	return err
}

// SumPayments returns the cumulative paid amount for a bill.
func (r *TxRepo) SumPayments(ctx context.Context, billID int64) (float64, error) {
	var sum float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE bill_id = $1`, billID).Scan(&sum)
	return sum, err
}
