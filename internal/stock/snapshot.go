package stock

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/syedosmanali/bizpulse-erp/internal/platform/cache"
)

// SnapshotReader is the read side used by the low-stock snapshot.
type SnapshotReader interface {
	ListLowStock(ctx context.Context, tenantID, threshold int64) ([]Product, error)
}

// SnapshotCache serves low-stock snapshots for the periodic scan.
// Concurrent builds for the same tenant collapse into one query.
type SnapshotCache struct {
	reader SnapshotReader
	cache  *cache.Cache
	group  singleflight.Group
}

// NewSnapshotCache constructs the snapshot helper.
func NewSnapshotCache(reader SnapshotReader, c *cache.Cache) *SnapshotCache {
	return &SnapshotCache{reader: reader, cache: c}
}

// LowStock returns products at or below threshold, served from cache when
// fresh.
func (s *SnapshotCache) LowStock(ctx context.Context, tenantID, threshold int64) ([]Product, error) {
	key := fmt.Sprintf("stock:low:%d:%d", tenantID, threshold)
	v, err, _ := s.group.Do(key, func() (any, error) {
		var products []Product
		err := s.cache.FetchJSON(ctx, key, &products, func(ctx context.Context) (any, error) {
			return s.reader.ListLowStock(ctx, tenantID, threshold)
		})
		return products, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}
