// Package tenant resolves and enforces the owning business for every
// operation. No row may be read or written across tenant boundaries.
package tenant

import (
	"context"
	"fmt"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

type tenantContextKey struct{}

// WithTenant stores the resolved tenant id in context.
func WithTenant(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, id)
}

// Resolve extracts the tenant id installed by the HTTP middleware.
func Resolve(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(tenantContextKey{}).(int64)
	if !ok || id == 0 {
		return 0, fmt.Errorf("%w: no tenant in context", shared.ErrTenantMismatch)
	}
	return id, nil
}

// Authorize fails when the resource belongs to a different tenant.
func Authorize(tenantID, resourceTenantID int64) error {
	if tenantID == 0 {
		return fmt.Errorf("%w: tenant required", shared.ErrTenantMismatch)
	}
	if tenantID != resourceTenantID {
		return fmt.Errorf("%w: resource belongs to another tenant", shared.ErrTenantMismatch)
	}
	return nil
}
