package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// JSONCache stores JSON encoded values in Redis. Concurrent misses on the
// same key share a single loader call.
type JSONCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// NewJSONCache builds a cache whose keys are namespaced by prefix. A nil
// client yields a pass-through cache that always calls the loader.
func NewJSONCache(client *redis.Client, prefix string, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *JSONCache) key(id string) string {
	if c.prefix == "" {
		return id
	}
	return c.prefix + ":" + id
}

// Fetch decodes the cached value for id into dest, populating it with loader
// on a miss.
func (c *JSONCache) Fetch(ctx context.Context, id string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	key := c.key(id)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			return nil, err
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Delete drops the cached value for each id.
func (c *JSONCache) Delete(ctx context.Context, ids ...string) error {
	if c == nil || c.client == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
