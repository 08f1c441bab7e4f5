package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zoramarket/cart-service/internal/application"
	"github.com/zoramarket/cart-service/internal/domain"
)

func TestPersistAndRehydrate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	first := f.engine("guest:1")
	first.AddItem(ctx, product("p1", "v1", 10.00), 2)
	first.AddItem(ctx, product("p2", "v2", 5.50), 1)
	first.ApplyPromoCode(ctx, "SPRING10")
	settle(t, first)

	second := f.engine("guest:1")
	if err := second.Rehydrate(ctx); err != nil {
		t.Fatalf("rehydrate failed: %v", err)
	}

	got, want := second.View(), first.View()
	if len(got.Items) != 2 || got.Items[0].ProductID != "p1" || got.Items[0].Quantity != 2 {
		t.Fatalf("items not restored: %+v", got.Items)
	}
	if got.Subtotal != want.Subtotal || got.Total != want.Total || got.DeliveryFee != want.DeliveryFee {
		t.Fatalf("totals not restored: got=%+v want=%+v", got, want)
	}
	if len(got.Vendors) != 2 || got.Vendors[0].Name != "Hackney Greengrocer" {
		t.Fatalf("vendor groups not restored: %+v", got.Vendors)
	}
	if got.PromoCode == nil || *got.PromoCode != "SPRING10" {
		t.Fatalf("promo code not restored: %v", got.PromoCode)
	}
}

func TestRehydrateIsNotImplicit(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	first := f.engine("guest:1")
	first.AddItem(ctx, product("p1", "v1", 10.00), 1)
	settle(t, first)

	second := f.engine("guest:1")
	if got := second.ItemCount(); got != 0 {
		t.Fatalf("a new engine should start empty until rehydrated, got %d", got)
	}
}

func TestRehydrateMissingSnapshotKeepsEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture()
	e := f.engine("guest:unknown")
	if err := e.Rehydrate(context.Background()); err != nil {
		t.Fatalf("missing snapshot should not be an error: %v", err)
	}
	view := e.View()
	if len(view.Items) != 0 || view.ServiceFee != 0.50 {
		t.Fatalf("unexpected state after empty rehydrate: %+v", view)
	}
}

func TestRehydrateStoreFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.store.loadErr = domain.ErrStorageUnavailable
	e := f.engine("guest:1")

	err := e.Rehydrate(context.Background())
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if e.ItemCount() != 0 {
		t.Fatalf("failed rehydrate should leave the cart empty")
	}

	e.AddItem(context.Background(), product("p1", "v1", 2.00), 1)
	settle(t, e)
	if f.store.saveCount() != 0 {
		t.Fatalf("cart must not persist over an unread snapshot, saves=%d", f.store.saveCount())
	}
	if e.ItemCount() != 1 {
		t.Fatalf("mutations should still apply in memory, got %d units", e.ItemCount())
	}

	f.store.mu.Lock()
	f.store.loadErr = nil
	f.store.mu.Unlock()
	if err := e.Rehydrate(context.Background()); err != nil {
		t.Fatalf("rehydrate retry failed: %v", err)
	}
	e.AddItem(context.Background(), product("p2", "v1", 2.00), 1)
	settle(t, e)
	if f.store.saveCount() == 0 {
		t.Fatalf("cart should persist once a load succeeds")
	}
}

func TestRehydrateSupersedesInFlightRecompute(t *testing.T) {
	t.Parallel()

	f := newFixture()
	gated := newGatedVendors(f.vendors)
	f.deps.Vendors = gated
	e := f.engine("guest:1")
	ctx := context.Background()

	e.AddItem(ctx, product("p1", "v1", 10.00), 1)
	<-gated.entered

	stored := domain.Snapshot{
		Items:    []domain.LineItem{{ProductID: "p9", VendorID: "v2", Quantity: 1, Product: product("p9", "v2", 3.00)}},
		Vendors:  []domain.VendorGroup{},
		Subtotal: 3.00, DeliveryFee: 2.50, ServiceFee: 0.50, Total: 6.00,
	}
	if err := f.store.Save(ctx, application.StorageKey(application.DefaultStorageKey, "guest:1"), stored); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := e.Rehydrate(ctx); err != nil {
		t.Fatalf("rehydrate failed: %v", err)
	}
	close(gated.release)
	settle(t, e)

	view := e.View()
	if len(view.Items) != 1 || view.Items[0].ProductID != "p9" || view.Total != 6.00 {
		t.Fatalf("rehydrated state should survive the stale pass: %+v", view)
	}
}

func serverSnapshot() domain.Snapshot {
	item := domain.LineItem{
		ProductID: "srv-1",
		VendorID:  "v2",
		Quantity:  3,
		Product:   product("srv-1", "v2", 4.00),
	}
	return domain.Snapshot{
		Items: []domain.LineItem{item},
		Vendors: []domain.VendorGroup{{
			ID: "v2", Name: "Dalston Bakehouse", DeliveryTime: "1-1 days", Subtotal: 12.00,
			Items: []domain.LineItem{item},
		}},
		Subtotal:    12.00,
		DeliveryFee: 2.50,
		ServiceFee:  0,
		Total:       15.00,
	}
}

func TestFetchCartReplacesLocalState(t *testing.T) {
	t.Parallel()

	f := newFixture()
	remote := &stubRemote{snapshot: serverSnapshot()}
	f.deps.Remote = remote
	f.deps.Sessions = stubSessions{tokens: map[string]string{"user:42": "token-42"}}
	e := f.engine("user:42")
	ctx := context.Background()

	e.AddItem(ctx, product("local-1", "v1", 10.00), 1)
	e.SetDiscount(ctx, 1.25)
	settle(t, e)

	e.FetchCart(ctx)
	settle(t, e)

	view := e.View()
	if len(view.Items) != 1 || view.Items[0].ProductID != "srv-1" {
		t.Fatalf("server items should replace local items: %+v", view.Items)
	}
	if view.Subtotal != 12.00 || view.DeliveryFee != 2.50 || view.Total != 15.00 {
		t.Fatalf("server totals should be taken as-is: %+v", view)
	}
	if view.ServiceFee != 0.50 {
		t.Fatalf("zero server service fee should fall back to policy: %v", view.ServiceFee)
	}
	if view.Discount != 1.25 {
		t.Fatalf("local discount should be kept: %v", view.Discount)
	}
	if view.IsLoading {
		t.Fatalf("loading flag should be cleared")
	}
	if remote.tokens[0] != "token-42" {
		t.Fatalf("remote should receive the session token, got %v", remote.tokens)
	}

	stored, ok, err := f.store.Load(ctx, application.StorageKey(application.DefaultStorageKey, "user:42"))
	if err != nil || !ok || len(stored.Items) != 1 || stored.Items[0].ProductID != "srv-1" {
		t.Fatalf("synced cart should be persisted: ok=%v err=%v items=%+v", ok, err, stored.Items)
	}
}

func TestFetchCartFailureKeepsLocalState(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.deps.Remote = &stubRemote{err: domain.ErrDependencyUnavailable}
	f.deps.Sessions = stubSessions{tokens: map[string]string{"user:42": "token-42"}}
	e := f.engine("user:42")
	ctx := context.Background()

	e.AddItem(ctx, product("local-1", "v1", 10.00), 2)
	settle(t, e)
	before := e.View()

	e.FetchCart(ctx)

	after := e.View()
	if len(after.Items) != 1 || after.Items[0].ProductID != "local-1" || after.Total != before.Total {
		t.Fatalf("failed sync should keep local state: before=%+v after=%+v", before, after)
	}
	if after.IsLoading {
		t.Fatalf("loading flag should be cleared after failure")
	}
}

func TestFetchCartWithoutSessionIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture()
	remote := &stubRemote{snapshot: serverSnapshot()}
	f.deps.Remote = remote
	f.deps.Sessions = stubSessions{tokens: map[string]string{}}
	e := f.engine("guest:1")
	ctx := context.Background()

	e.AddItem(ctx, product("local-1", "v1", 10.00), 1)
	settle(t, e)
	e.FetchCart(ctx)

	if remote.calls() != 0 {
		t.Fatalf("remote should not be called without a session")
	}
	if e.View().Items[0].ProductID != "local-1" {
		t.Fatalf("local state should be untouched")
	}
}
