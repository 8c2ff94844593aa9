package stock

import (
	"fmt"
	"time"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

// Product is the inventory view of a catalog item. Stock is mutated only
// through the Ledger, never directly by other packages.
type Product struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Stock     int64     `json:"stock"`
	Cost      float64   `json:"cost"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReserveInput describes a quantity to take out of stock for one bill line.
type ReserveInput struct {
	ProductID int64
	Quantity  int64
}

// ReleaseInput describes a quantity to return to stock.
type ReleaseInput struct {
	ProductID int64
	Quantity  int64
}

// ErrProductNotFound indicates the product row is missing.
var ErrProductNotFound = fmt.Errorf("stock: product %w", shared.ErrNotFound)

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
