package stock

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

// GetProduct loads a product row scoped to the tenant.
func (r *Repository) GetProduct(ctx context.Context, tenantID, productID int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, name, stock, cost, price, updated_at FROM products WHERE id = $1 AND tenant_id = $2`, productID, tenantID).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.Stock, &p.Cost, &p.Price, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// ListLowStock returns products at or below the threshold, for the
// read-only low-stock scan. It never mutates ledger state.
func (r *Repository) ListLowStock(ctx context.Context, tenantID, threshold int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, name, stock, cost, price, updated_at FROM products WHERE tenant_id = $1 AND stock <= $2 ORDER BY stock, id`, tenantID, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Stock, &p.Cost, &p.Price, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// TxRepo implements TxRepository over a pgx transaction.
type TxRepo struct {
	tx pgx.Tx
}

// NewTxRepo wraps an open transaction.
func NewTxRepo(tx pgx.Tx) *TxRepo {
	return &TxRepo{tx: tx}
}

// ProductTenant returns the owning tenant of a product.
func (r *TxRepo) ProductTenant(ctx context.Context, productID int64) (int64, error) {
	var owner int64
	err := r.tx.QueryRow(ctx, `SELECT tenant_id FROM products WHERE id = $1`, productID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return owner, nil
}

// AdjustStock applies a signed delta to a single product row and returns
// the resulting stock. The row stays locked until the transaction ends.
func (r *TxRepo) AdjustStock(ctx context.Context, tenantID, productID, delta int64) (int64, error) {
	var stock int64
	err := r.tx.QueryRow(ctx, `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2 AND tenant_id = $3 RETURNING stock`, delta, productID, tenantID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return stock, nil
}
