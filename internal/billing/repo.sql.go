package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syedosmanali/bizpulse-erp/internal/credit"
	"github.com/syedosmanali/bizpulse-erp/internal/payment"
	"github.com/syedosmanali/bizpulse-erp/internal/platform/db"
	"github.com/syedosmanali/bizpulse-erp/internal/stock"
)

// Repository provides PostgreSQL backed persistence for bills.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx wraps the callback in a repeatable-read transaction. All ledger
// repositories handed to the callback share that transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{
			tx:       tx,
			stock:    stock.NewTxRepo(tx),
			credit:   credit.NewTxRepo(tx),
			payments: payment.NewTxRepo(tx),
		})
	})
}

const billColumns = `id, tenant_id, bill_number, customer_id, subtotal, tax_amount, discount_amount, total_amount, payment_method, is_credit, payment_status, credit_paid_amount, credit_balance, cheque_deposited, status, created_at, updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.TenantID, &b.Number, &b.CustomerID, &b.Subtotal, &b.TaxAmount, &b.DiscountAmount, &b.TotalAmount,
		&b.PaymentMethod, &b.IsCredit, &b.PaymentStatus, &b.CreditPaidAmount, &b.CreditBalance, &b.ChequeDeposited, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetBill loads a bill with its items, scoped to the tenant.
func (r *Repository) GetBill(ctx context.Context, tenantID, billID int64) (*Bill, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1 AND tenant_id = $2`, billID, tenantID)
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	items, err := r.listItems(ctx, billID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

// ListBills returns bills for a tenant, newest first.
func (r *Repository) ListBills(ctx context.Context, tenantID int64, req ListBillsRequest) ([]Bill, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + billColumns + ` FROM bills WHERE tenant_id = $1`
	args := []any{tenantID}
	if req.Status != nil {
		args = append(args, string(*req.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if req.PaymentStatus != nil {
		args = append(args, *req.PaymentStatus)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	args = append(args, limit, req.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (r *Repository) listItems(ctx context.Context, billID int64) ([]BillItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, bill_id, product_id, quantity, unit_price, total_price, tax_rate FROM bill_items WHERE bill_id = $1 ORDER BY id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.TaxRate); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type txRepo struct {
	tx       pgx.Tx
	stock    *stock.TxRepo
	credit   *credit.TxRepo
	payments *payment.TxRepo
}

func (r *txRepo) Stock() stock.TxRepository { return r.stock }
func (r *txRepo) Credit() credit.TxRepository { return r.credit }
func (r *txRepo) Payments() payment.TxRepository { return r.payments }

// NextBillNumber allocates the next human-readable number, unique per
// tenant. The per-tenant counter row is locked by the UPDATE so two
// concurrent creates never share a number.
func (r *txRepo) NextBillNumber(ctx context.Context, tenantID int64) (string, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `UPDATE tenants SET bill_seq = bill_seq + 1 WHERE id = $1 RETURNING bill_seq`, tenantID).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("billing: tenant %d not found", tenantID)
		}
		return "", err
	}
	return fmt.Sprintf("BILL-%06d", seq), nil
}

func (r *txRepo) InsertBill(ctx context.Context, b Bill) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO bills (tenant_id, bill_number, customer_id, subtotal, tax_amount, discount_amount, total_amount, payment_method, is_credit, payment_status, credit_paid_amount, credit_balance, cheque_deposited, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()) RETURNING id`,
		b.TenantID, b.Number, b.CustomerID, b.Subtotal, b.TaxAmount, b.DiscountAmount, b.TotalAmount,
		string(b.PaymentMethod), b.IsCredit, string(b.PaymentStatus), b.CreditPaidAmount, b.CreditBalance, b.ChequeDeposited, string(b.Status)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *txRepo) InsertBillItems(ctx context.Context, billID int64, items []BillItem) error {
	for _, it := range items {
		_, err := r.tx.Exec(ctx, `INSERT INTO bill_items (bill_id, product_id, quantity, unit_price, total_price, tax_rate) VALUES ($1, $2, $3, $4, $5, $6)`,
			billID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, it.TaxRate)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetBillForUpdate loads and locks the bill row. Tenant authorization is
// the service's job; the row is fetched by id so the service can report
// a mismatch rather than a generic not-found.
func (r *txRepo) GetBillForUpdate(ctx context.Context, billID int64) (Bill, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1 FOR UPDATE`, billID)
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, ErrBillNotFound
		}
		return Bill{}, err
	}
	return b, nil
}

func (r *txRepo) GetBillItems(ctx context.Context, billID int64) ([]BillItem, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, bill_id, product_id, quantity, unit_price, total_price, tax_rate FROM bill_items WHERE bill_id = $1 ORDER BY id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.TaxRate); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *txRepo) UpdateBill(ctx context.Context, b Bill) error {
	tag, err := r.tx.Exec(ctx, `UPDATE bills SET customer_id = $1, subtotal = $2, tax_amount = $3, discount_amount = $4, total_amount = $5, payment_method = $6, is_credit = $7, payment_status = $8, credit_paid_amount = $9, credit_balance = $10, cheque_deposited = $11, status = $12, updated_at = NOW() WHERE id = $13`,
		b.CustomerID, b.Subtotal, b.TaxAmount, b.DiscountAmount, b.TotalAmount, string(b.PaymentMethod), b.IsCredit,
		string(b.PaymentStatus), b.CreditPaidAmount, b.CreditBalance, b.ChequeDeposited, string(b.Status), b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *txRepo) DeleteBillItems(ctx context.Context, billID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID)
	return err
}

// DeleteBill removes the bill row with its payments and items.
func (r *txRepo) DeleteBill(ctx context.Context, billID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM payments WHERE bill_id = $1`, billID); err != nil {
		return err
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM bills WHERE id = $1`, billID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}
