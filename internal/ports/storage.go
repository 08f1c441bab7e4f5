package ports

import (
	"context"

	"github.com/zoramarket/cart-service/internal/domain"
)

// SnapshotStore is the durable key-value store for cart snapshots.
// Save always receives a complete snapshot.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (domain.Snapshot, bool, error)
	Save(ctx context.Context, key string, snapshot domain.Snapshot) error
}
