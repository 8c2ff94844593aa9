package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Clock supplies the current time; injected so expiry is testable.
type Clock func() time.Time

// Cache is a Redis backed JSON cache with a fixed TTL. It is constructed
// once and passed by handle; there is no package-level instance.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	clock  Clock
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration, clock Clock) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{client: client, ttl: ttl, clock: clock}
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// FetchJSON loads a cached value or populates it using the loader. Entries
// older than the TTL according to the injected clock are treated as misses,
// so a skewed Redis node cannot serve stale snapshots.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var env envelope
		if jsonErr := json.Unmarshal(payload, &env); jsonErr == nil {
			if c.clock().Sub(env.StoredAt) <= c.ttl {
				return json.Unmarshal(env.Payload, dest)
			}
		}
	} else if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	env, err := json.Marshal(envelope{StoredAt: c.clock(), Payload: raw})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, env, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}
