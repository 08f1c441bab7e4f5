package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zoramarket/cart-service/internal/domain"
)

// Rehydrate loads the persisted snapshot. It is never called implicitly so
// the host decides when stored state becomes visible. A missing snapshot
// leaves the cart empty. After a failed load the engine stops writing
// snapshots until a later Rehydrate succeeds.
func (e *Engine) Rehydrate(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	snapshot, found, err := e.store.Load(ctx, e.key)
	if err != nil {
		e.mu.Lock()
		e.loadFailed = true
		e.mu.Unlock()
		e.logger.ErrorContext(ctx, "rehydrate failed",
			"operation", "rehydrate",
			"outcome", "failure",
			"error", err,
		)
		return fmt.Errorf("rehydrate cart %q: %w", e.key, err)
	}
	if !found {
		e.mu.Lock()
		e.loadFailed = false
		e.mu.Unlock()
		return nil
	}

	e.mu.Lock()
	e.loadFailed = false
	e.items = domain.CloneItems(snapshot.Items)
	e.groups = domain.CloneGroups(snapshot.Vendors)
	e.totals = snapshot.Totals()
	e.promoCode = clonePromo(snapshot.PromoCode)
	e.generation++
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "cart rehydrated",
		"operation", "rehydrate",
		"outcome", "success",
		"item_count", domain.ItemCount(snapshot.Items),
	)
	return nil
}

// FetchCart replaces local state with the server cart when a session exists.
// Failures keep local state and are only logged.
func (e *Engine) FetchCart(ctx context.Context) {
	if e.remote == nil || e.sessions == nil {
		return
	}
	token, ok := e.sessions.AccessToken(ctx, e.owner)
	if !ok || token == "" {
		return
	}

	e.setLoading(true)
	snapshot, err := e.remote.FetchCart(ctx, token)
	if err != nil {
		e.setLoading(false)
		e.logger.ErrorContext(ctx, "fetch cart failed",
			"operation", "fetch_cart",
			"outcome", "failure",
			"error", err,
		)
		return
	}

	serviceFee := snapshot.ServiceFee
	if serviceFee == 0 {
		serviceFee = e.cfg.Pricing.ServiceFee
	}
	e.mu.Lock()
	e.items = domain.CloneItems(snapshot.Items)
	e.groups = domain.CloneGroups(snapshot.Vendors)
	e.totals = domain.Totals{
		Subtotal:    snapshot.Subtotal,
		DeliveryFee: snapshot.DeliveryFee,
		ServiceFee:  serviceFee,
		Discount:    e.totals.Discount,
		Total:       snapshot.Total,
	}
	e.loading = false
	e.generation++
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "cart synced from server",
		"operation", "fetch_cart",
		"outcome", "success",
		"item_count", domain.ItemCount(snapshot.Items),
	)
	e.persist(ctx, "fetch_cart")
	e.publishUpdated(ctx, "fetch_cart")
}

func (e *Engine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}

func (e *Engine) persist(ctx context.Context, operation string) {
	if e.store == nil {
		return
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	e.mu.Lock()
	blocked := e.loadFailed
	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	if blocked {
		e.logger.WarnContext(ctx, "persist skipped, stored snapshot not loaded",
			"operation", operation,
			"outcome", "skipped",
			"storage_key", e.key,
		)
		return
	}
	if err := e.store.Save(ctx, e.key, snapshot); err != nil {
		e.logger.ErrorContext(ctx, "persist cart failed",
			"operation", operation,
			"outcome", "failure",
			"storage_key", e.key,
			"error", err,
		)
	}
}

func (e *Engine) publishUpdated(ctx context.Context, reason string) {
	if e.publisher == nil {
		return
	}
	e.mu.Lock()
	event := cartUpdatedEvent{
		EventID:     uuid.NewString(),
		Owner:       e.owner,
		Reason:      reason,
		ItemCount:   domain.ItemCount(e.items),
		VendorCount: len(e.groups),
		Subtotal:    e.totals.Subtotal,
		Total:       e.totals.Total,
		Currency:    e.cfg.Pricing.Currency,
		OccurredAt:  e.nowFn(),
	}
	e.mu.Unlock()

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	partitionKey := e.owner
	if partitionKey == "" {
		partitionKey = e.key
	}
	if err := e.publisher.Publish(ctx, EventTypeCartUpdated, payload, partitionKey); err != nil {
		e.logger.WarnContext(ctx, "publish cart event failed",
			"operation", "publish_cart_updated",
			"outcome", "failure",
			"event_id", event.EventID,
			"error", err,
		)
	}
}
