package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration, clock Clock) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, ttl, clock)
}

func TestFetchJSONCaches(t *testing.T) {
	c := newTestCache(t, time.Minute, nil)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	var out []int
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, []int{1, 2, 3}, out)
	require.Equal(t, 1, calls)

	out = nil
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, []int{1, 2, 3}, out)
	require.Equal(t, 1, calls)
}

func TestFetchJSONExpiresByInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newTestCache(t, time.Minute, clock)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	var out int
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, 1, out)

	// Still fresh just inside the TTL.
	now = now.Add(59 * time.Second)
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, 1, out)

	// Past the TTL the entry reads as a miss even if Redis kept it.
	now = now.Add(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, 2, out)
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t, time.Minute, nil)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return "v", nil
	}

	var out string
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	require.NoError(t, c.Invalidate(ctx, "k"))
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, 2, calls)
}

func TestFetchJSONWithoutClientFallsThrough(t *testing.T) {
	var c *Cache
	var out string
	err := c.FetchJSON(context.Background(), "k", &out, func(ctx context.Context) (any, error) {
		return "direct", nil
	})
	require.NoError(t, err)
	require.Equal(t, "direct", out)
}
