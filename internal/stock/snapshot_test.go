package stock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/syedosmanali/bizpulse-erp/internal/platform/cache"
)

type countingReader struct {
	calls    int
	products []Product
}

func (r *countingReader) ListLowStock(ctx context.Context, tenantID, threshold int64) ([]Product, error) {
	r.calls++
	return r.products, nil
}

func TestLowStockSnapshotCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reader := &countingReader{products: []Product{{ID: 1, TenantID: 10, Name: "Rice 5kg", Stock: 2}}}
	snapshots := NewSnapshotCache(reader, cache.NewCache(client, time.Minute, nil))
	ctx := context.Background()

	products, err := snapshots.LowStock(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, 1, reader.calls)

	products, err = snapshots.LowStock(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, 1, reader.calls)

	// A different threshold is a different snapshot.
	_, err = snapshots.LowStock(ctx, 10, 3)
	require.NoError(t, err)
	require.Equal(t, 2, reader.calls)
}
