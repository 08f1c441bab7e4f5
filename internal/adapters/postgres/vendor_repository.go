package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
	"gorm.io/gorm"
)

type vendorRepository struct {
	db *gorm.DB
}

func (r *vendorRepository) GetByID(ctx context.Context, vendorID string) (domain.VendorMetadata, error) {
	var row vendorModel
	err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.VendorMetadata{}, fmt.Errorf("vendor %q: %w", vendorID, domain.ErrNotFound)
		}
		return domain.VendorMetadata{}, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	return toVendorMetadata(row), nil
}

var _ ports.VendorLookup = (*vendorRepository)(nil)
