package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRepository struct {
	db *gorm.DB
}

func (r *snapshotRepository) Load(ctx context.Context, key string) (domain.Snapshot, bool, error) {
	var row cartSnapshotModel
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Snapshot{}, false, nil
		}
		return domain.Snapshot{}, false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	var out domain.Snapshot
	if err := json.Unmarshal(row.Payload, &out); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return out, true, nil
}

func (r *snapshotRepository) Save(ctx context.Context, key string, snapshot domain.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	row := cartSnapshotModel{
		StorageKey: key,
		Payload:    payload,
		ItemCount:  domain.ItemCount(snapshot.Items),
		UpdatedAt:  time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "item_count", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

var _ ports.SnapshotStore = (*snapshotRepository)(nil)
