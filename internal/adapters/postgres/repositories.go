package postgres

import (
	"github.com/zoramarket/cart-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Vendors   ports.VendorLookup
	Snapshots ports.SnapshotStore
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Vendors:   &vendorRepository{db: db},
		Snapshots: &snapshotRepository{db: db},
	}
}
