package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zoramarket/cart-service/internal/domain"
)

const vendorKeyPrefix = "cart:vendor:"

// RedisVendorCache shares vendor metadata between engines and process restarts.
type RedisVendorCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisVendorCache(client *redis.Client, ttl time.Duration) *RedisVendorCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisVendorCache{client: client, ttl: ttl}
}

func (c *RedisVendorCache) Get(ctx context.Context, vendorID string) (domain.VendorMetadata, bool, error) {
	raw, err := c.client.Get(ctx, vendorKeyPrefix+vendorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.VendorMetadata{}, false, nil
		}
		return domain.VendorMetadata{}, false, err
	}
	var out domain.VendorMetadata
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.VendorMetadata{}, false, err
	}
	return out, true, nil
}

func (c *RedisVendorCache) Put(ctx context.Context, meta domain.VendorMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, vendorKeyPrefix+meta.ID, raw, c.ttl).Err()
}
