package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
)

// Engine owns one cart: its line items and the totals and vendor groups
// derived from them. Mutations apply synchronously; derived state is
// recomputed by asynchronous passes, and only the most recently started
// pass may write its results back.
type Engine struct {
	owner     string
	key       string
	cfg       Config
	logger    *slog.Logger
	vendors   ports.VendorLookup
	store     ports.SnapshotStore
	remote    ports.RemoteCart
	sessions  ports.SessionSource
	publisher ports.EventPublisher
	metrics   ports.CartMetrics
	nowFn     func() time.Time

	mu          sync.Mutex
	items       []domain.LineItem
	groups      []domain.VendorGroup
	totals      domain.Totals
	promoCode   *string
	loading     bool
	generation  uint64
	pending     int
	settled     chan struct{}
	vendorCache map[string]domain.VendorMetadata

	// set while the stored snapshot could not be read; writes would clobber it
	loadFailed bool

	// serializes snapshot writes so the store never goes backwards
	saveMu sync.Mutex
}

func NewEngine(owner string, deps Dependencies) *Engine {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cart-service"
	}
	if cfg.Pricing == (domain.PricingPolicy{}) {
		cfg.Pricing = domain.DefaultPricingPolicy()
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	settled := make(chan struct{})
	close(settled)
	return &Engine{
		owner:       owner,
		key:         StorageKey(cfg.StorageKey, owner),
		cfg:         cfg,
		logger:      logger.With("module", "application.engine", "layer", "application", "owner", owner),
		vendors:     deps.Vendors,
		store:       deps.Store,
		remote:      deps.Remote,
		sessions:    deps.Sessions,
		publisher:   deps.Publisher,
		metrics:     metrics,
		nowFn:       nowFn,
		items:       []domain.LineItem{},
		groups:      []domain.VendorGroup{},
		totals:      domain.Totals{ServiceFee: cfg.Pricing.ServiceFee},
		settled:     settled,
		vendorCache: make(map[string]domain.VendorMetadata),
	}
}

// StorageKey namespaces the persisted snapshot per owner.
func StorageKey(base, owner string) string {
	if owner == "" {
		return base
	}
	return base + ":" + owner
}

func (e *Engine) Owner() string { return e.owner }

// ItemCount returns the number of units in the cart.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.ItemCount(e.items)
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{
		Owner:       e.owner,
		Items:       domain.CloneItems(e.items),
		Vendors:     domain.CloneGroups(e.groups),
		Subtotal:    e.totals.Subtotal,
		DeliveryFee: e.totals.DeliveryFee,
		ServiceFee:  e.totals.ServiceFee,
		Discount:    e.totals.Discount,
		Total:       e.totals.Total,
		PromoCode:   clonePromo(e.promoCode),
		ItemCount:   domain.ItemCount(e.items),
		Currency:    e.cfg.Pricing.Currency,
		IsLoading:   e.loading,
		Recomputing: e.pending > 0,
	}
}

// Snapshot returns the complete persisted shape of the cart.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Items:       domain.CloneItems(e.items),
		Vendors:     domain.CloneGroups(e.groups),
		Subtotal:    e.totals.Subtotal,
		DeliveryFee: e.totals.DeliveryFee,
		ServiceFee:  e.totals.ServiceFee,
		Discount:    e.totals.Discount,
		Total:       e.totals.Total,
		PromoCode:   clonePromo(e.promoCode),
	}
}

// Wait blocks until no recompute pass is in flight or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	for {
		e.mu.Lock()
		if e.pending == 0 {
			e.mu.Unlock()
			return nil
		}
		ch := e.settled
		e.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Idle reports whether no recompute pass is in flight.
func (e *Engine) Idle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending == 0
}

func clonePromo(code *string) *string {
	if code == nil {
		return nil
	}
	v := *code
	return &v
}
