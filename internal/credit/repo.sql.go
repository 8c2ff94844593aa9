package credit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed reads outside a transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetCustomer loads a customer row scoped to the tenant.
func (r *Repository) GetCustomer(ctx context.Context, tenantID, customerID int64) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, name, credit_limit, current_balance, total_purchases FROM customers WHERE id = $1 AND tenant_id = $2`, customerID, tenantID).
		Scan(&c.ID, &c.TenantID, &c.Name, &c.CreditLimit, &c.CurrentBalance, &c.TotalPurchases)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// ListTransactions returns a customer's credit audit trail, newest first.
func (r *Repository) ListTransactions(ctx context.Context, tenantID, customerID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT ct.id, ct.bill_id, ct.customer_id, ct.transaction_type, ct.amount, ct.created_at
FROM credit_transactions ct JOIN customers c ON c.id = ct.customer_id
WHERE ct.customer_id = $1 AND c.tenant_id = $2 ORDER BY ct.id DESC LIMIT $3`, customerID, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.BillID, &t.CustomerID, &t.Type, &t.Amount, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// FindBalanceMismatches reports customers whose stored balance differs
// from the signed sum of their credit transactions. Used by the
// background reconciliation job, never by the hot path.
func (r *Repository) FindBalanceMismatches(ctx context.Context, tenantID int64) ([]BalanceMismatch, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.current_balance, COALESCE(SUM(ct.amount), 0) AS ledger_sum
FROM customers c LEFT JOIN credit_transactions ct ON ct.customer_id = c.id
WHERE c.tenant_id = $1
GROUP BY c.id, c.current_balance
HAVING ABS(c.current_balance - COALESCE(SUM(ct.amount), 0)) > 0.005`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var mismatches []BalanceMismatch
	for rows.Next() {
		var m BalanceMismatch
		if err := rows.Scan(&m.CustomerID, &m.CurrentBalance, &m.LedgerSum); err != nil {
			return nil, err
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, rows.Err()
}

// ListTenantIDs returns all tenants, for the reconciliation scan.
func (r *Repository) ListTenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tenants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TxRepo implements TxRepository over a pgx transaction.
type TxRepo struct {
	tx pgx.Tx
}

// NewTxRepo wraps an open transaction.
func NewTxRepo(tx pgx.Tx) *TxRepo {
	return &TxRepo{tx: tx}
}

// GetCustomerForUpdate loads and locks the customer row for the duration
// of the transaction.
func (r *TxRepo) GetCustomerForUpdate(ctx context.Context, customerID int64) (Customer, error) {
	var c Customer
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, name, credit_limit, current_balance, total_purchases FROM customers WHERE id = $1 FOR UPDATE`, customerID).
		Scan(&c.ID, &c.TenantID, &c.Name, &c.CreditLimit, &c.CurrentBalance, &c.TotalPurchases)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// InsertTransaction appends a credit transaction row.
func (r *TxRepo) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO credit_transactions (bill_id, customer_id, transaction_type, amount, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.BillID, t.CustomerID, string(t.Type), t.Amount, t.CreatedAt)
	return err
}

// AdjustCustomerBalance applies signed deltas to a single customer row
// and returns the resulting balance. The row lock serializes concurrent
// credit operations against the same customer.
func (r *TxRepo) AdjustCustomerBalance(ctx context.Context, tenantID, customerID int64, balanceDelta, purchasesDelta float64) (float64, error) {
	var balance float64
	err := r.tx.QueryRow(ctx, `UPDATE customers SET current_balance = current_balance + $1, total_purchases = total_purchases + $2 WHERE id = $3 AND tenant_id = $4 RETURNING current_balance`,
		balanceDelta, purchasesDelta, customerID, tenantID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCustomerNotFound
		}
		return 0, err
	}
	return balance, nil
}

// BillNet returns the signed sum of a bill's ledger entries for one customer.
func (r *TxRepo) BillNet(ctx context.Context, billID, customerID int64) (float64, error) {
	var net float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE bill_id = $1 AND customer_id = $2`, billID, customerID).Scan(&net)
	return net, err
}
