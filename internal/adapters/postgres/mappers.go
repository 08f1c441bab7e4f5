package postgres

import "github.com/zoramarket/cart-service/internal/domain"

func toVendorMetadata(row vendorModel) domain.VendorMetadata {
	return domain.VendorMetadata{
		ID:              row.VendorID,
		Name:            row.ShopName,
		LogoURL:         row.LogoURL,
		DeliveryTimeMin: row.DeliveryTimeMin,
		DeliveryTimeMax: row.DeliveryTimeMax,
	}
}
