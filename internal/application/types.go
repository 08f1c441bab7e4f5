package application

import (
	"log/slog"
	"time"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
)

const (
	DefaultStorageKey    = "cart-storage"
	EventTypeCartUpdated = "cart.updated"
)

type Config struct {
	ServiceName string
	Pricing     domain.PricingPolicy
	StorageKey  string
}

// Dependencies are the collaborators of an Engine. Only Vendors is expected
// in every deployment; the rest degrade to no-ops when nil.
type Dependencies struct {
	Config    Config
	Logger    *slog.Logger
	Vendors   ports.VendorLookup
	Store     ports.SnapshotStore
	Remote    ports.RemoteCart
	Sessions  ports.SessionSource
	Publisher ports.EventPublisher
	Metrics   ports.CartMetrics
	Now       func() time.Time
}

// View is a read-only copy of an engine's state.
type View struct {
	Owner       string               `json:"owner,omitempty"`
	Items       []domain.LineItem    `json:"items"`
	Vendors     []domain.VendorGroup `json:"vendors"`
	Subtotal    float64              `json:"subtotal"`
	DeliveryFee float64              `json:"delivery_fee"`
	ServiceFee  float64              `json:"service_fee"`
	Discount    float64              `json:"discount"`
	Total       float64              `json:"total"`
	PromoCode   *string              `json:"promo_code"`
	ItemCount   int                  `json:"item_count"`
	Currency    string               `json:"currency"`
	IsLoading   bool                 `json:"is_loading"`
	Recomputing bool                 `json:"recomputing"`
}

type cartUpdatedEvent struct {
	EventID     string    `json:"event_id"`
	Owner       string    `json:"owner"`
	Reason      string    `json:"reason"`
	ItemCount   int       `json:"item_count"`
	VendorCount int       `json:"vendor_count"`
	Subtotal    float64   `json:"subtotal"`
	Total       float64   `json:"total"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type noopMetrics struct{}

func (noopMetrics) RecomputeApplied()    {}
func (noopMetrics) RecomputeSuperseded() {}
func (noopMetrics) VendorLookup(string)  {}
