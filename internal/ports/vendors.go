package ports

import (
	"context"

	"github.com/zoramarket/cart-service/internal/domain"
)

// VendorLookup resolves vendor display metadata. Implementations return
// domain.ErrNotFound for unknown ids and must be safe for concurrent use.
type VendorLookup interface {
	GetByID(ctx context.Context, vendorID string) (domain.VendorMetadata, error)
}
