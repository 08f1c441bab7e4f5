package vendors

import (
	"context"
	"log/slog"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
)

// MetadataCache is the shared store CachedLookup reads through.
type MetadataCache interface {
	Get(ctx context.Context, vendorID string) (domain.VendorMetadata, bool, error)
	Put(ctx context.Context, meta domain.VendorMetadata) error
}

// CachedLookup reads vendor metadata through a shared cache. Cache failures
// degrade to a direct lookup; lookup failures are never cached.
type CachedLookup struct {
	next   ports.VendorLookup
	cache  MetadataCache
	logger *slog.Logger
}

func NewCachedLookup(next ports.VendorLookup, cache MetadataCache, logger *slog.Logger) *CachedLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLookup{next: next, cache: cache, logger: logger.With("module", "adapters.vendors")}
}

func (c *CachedLookup) GetByID(ctx context.Context, vendorID string) (domain.VendorMetadata, error) {
	meta, ok, err := c.cache.Get(ctx, vendorID)
	if err != nil {
		c.logger.Warn("vendor cache read failed",
			"operation", "vendor_cache_get",
			"vendor_id", vendorID,
			"error", err,
		)
	} else if ok {
		return meta, nil
	}

	meta, err = c.next.GetByID(ctx, vendorID)
	if err != nil {
		return domain.VendorMetadata{}, err
	}
	if meta.ID == "" {
		meta.ID = vendorID
	}
	if err := c.cache.Put(ctx, meta); err != nil {
		c.logger.Warn("vendor cache write failed",
			"operation", "vendor_cache_put",
			"vendor_id", vendorID,
			"error", err,
		)
	}
	return meta, nil
}

var _ ports.VendorLookup = (*CachedLookup)(nil)
