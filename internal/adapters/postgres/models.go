package postgres

import (
	"time"
)

type vendorModel struct {
	VendorID        string    `gorm:"column:vendor_id;primaryKey"`
	ShopName        string    `gorm:"column:shop_name"`
	LogoURL         string    `gorm:"column:logo_url"`
	DeliveryTimeMin int       `gorm:"column:delivery_time_min"`
	DeliveryTimeMax int       `gorm:"column:delivery_time_max"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (vendorModel) TableName() string { return "vendors" }

type cartSnapshotModel struct {
	StorageKey string    `gorm:"column:storage_key;primaryKey"`
	Payload    []byte    `gorm:"column:payload;type:jsonb"`
	ItemCount  int       `gorm:"column:item_count"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (cartSnapshotModel) TableName() string { return "cart_snapshots" }
