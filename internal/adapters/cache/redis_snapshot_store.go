package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zoramarket/cart-service/internal/domain"
)

// RedisSnapshotStore writes each cart snapshot as one JSON value under its storage key.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotStore creates the snapshot adapter. A zero ttl keeps snapshots until overwritten.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (s *RedisSnapshotStore) Load(ctx context.Context, key string) (domain.Snapshot, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, false, nil
		}
		return domain.Snapshot{}, false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	var out domain.Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return out, true, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, key string, snapshot domain.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}
