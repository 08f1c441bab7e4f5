package memory_test

import (
	"context"
	"testing"

	"github.com/zoramarket/cart-service/internal/adapters/memory"
	"github.com/zoramarket/cart-service/internal/domain"
)

func TestSnapshotStoreRoundTripIsolatesCallers(t *testing.T) {
	t.Parallel()

	store := memory.NewSnapshotStore()
	ctx := context.Background()
	code := "SPRING10"
	snap := domain.Snapshot{
		Items:     []domain.LineItem{{ProductID: "p1", Quantity: 2, Product: domain.ProductSnapshot{ID: "p1", Price: 3.5}}},
		Vendors:   []domain.VendorGroup{},
		Subtotal:  7,
		Total:     10,
		PromoCode: &code,
	}
	if err := store.Save(ctx, "cart-storage:guest:1", snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	snap.Items[0].Quantity = 99

	got, ok, err := store.Load(ctx, "cart-storage:guest:1")
	if err != nil || !ok {
		t.Fatalf("load failed: ok=%v err=%v", ok, err)
	}
	if got.Items[0].Quantity != 2 {
		t.Fatalf("stored snapshot should not alias the caller's slice: %+v", got.Items)
	}
	if got.PromoCode == nil || *got.PromoCode != "SPRING10" || got.Total != 10 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if store.Saves() != 1 {
		t.Fatalf("save count: got=%d want=1", store.Saves())
	}
}

func TestSnapshotStoreMissingKey(t *testing.T) {
	t.Parallel()

	_, ok, err := memory.NewSnapshotStore().Load(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("missing key should be (false, nil), got ok=%v err=%v", ok, err)
	}
}
