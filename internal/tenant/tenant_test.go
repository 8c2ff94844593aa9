package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

func TestResolve(t *testing.T) {
	ctx := WithTenant(context.Background(), 42)
	id, err := Resolve(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 42, id)
}

func TestResolveMissingTenant(t *testing.T) {
	_, err := Resolve(context.Background())
	require.ErrorIs(t, err, shared.ErrTenantMismatch)
}

func TestAuthorize(t *testing.T) {
	require.NoError(t, Authorize(1, 1))
	require.ErrorIs(t, Authorize(1, 2), shared.ErrTenantMismatch)
	require.ErrorIs(t, Authorize(0, 0), shared.ErrTenantMismatch)
}
