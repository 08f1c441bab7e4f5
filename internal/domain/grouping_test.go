package domain_test

import (
	"testing"

	"github.com/zoramarket/cart-service/internal/domain"
)

func TestGroupByVendorPartitionsInFirstAppearanceOrder(t *testing.T) {
	t.Parallel()

	items := []domain.LineItem{
		line("p1", "v1", 10.00, 2),
		line("p2", "v2", 5.50, 1),
		line("p3", "v1", 1.25, 4),
	}
	meta := map[string]domain.VendorMetadata{
		"v1": {ID: "v1", Name: "Hackney Greengrocer", LogoURL: "https://cdn.example/v1.png", DeliveryTimeMin: 1, DeliveryTimeMax: 2},
		"v2": {ID: "v2", Name: "Dalston Bakehouse", LogoURL: "https://cdn.example/v2.png", DeliveryTimeMin: 1, DeliveryTimeMax: 1},
	}
	groups := domain.GroupByVendor(items, meta)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ID != "v1" || groups[1].ID != "v2" {
		t.Fatalf("unexpected group order: %s, %s", groups[0].ID, groups[1].ID)
	}
	if groups[0].Subtotal != 25.00 || groups[1].Subtotal != 5.50 {
		t.Fatalf("unexpected subtotals: %v, %v", groups[0].Subtotal, groups[1].Subtotal)
	}
	if len(groups[0].Items) != 2 || len(groups[1].Items) != 1 {
		t.Fatalf("unexpected item partition: %d, %d", len(groups[0].Items), len(groups[1].Items))
	}
	if groups[0].Name != "Hackney Greengrocer" || groups[0].DeliveryTime != "1-2 days" {
		t.Fatalf("unexpected v1 group: %+v", groups[0])
	}
	if groups[1].DeliveryTime != "1-1 days" {
		t.Fatalf("unexpected v2 delivery time: %s", groups[1].DeliveryTime)
	}
}

func TestGroupByVendorFallbackChain(t *testing.T) {
	t.Parallel()

	embedded := line("p1", "v9", 3.00, 1)
	embedded.Product.Vendor = &domain.VendorRef{ID: "v9", ShopName: "Brixton Spice Market", LogoURL: "https://cdn.example/v9.png"}
	bare := line("p2", "v8", 2.00, 1)

	groups := domain.GroupByVendor([]domain.LineItem{embedded, bare}, nil)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "Brixton Spice Market" || groups[0].LogoURL != "https://cdn.example/v9.png" {
		t.Fatalf("embedded vendor data should be used: %+v", groups[0])
	}
	if groups[1].Name != domain.UnknownVendorName || groups[1].LogoURL != domain.PlaceholderVendorLogo {
		t.Fatalf("placeholder vendor data should be used: %+v", groups[1])
	}
	if groups[1].DeliveryTime != "2-3 days" {
		t.Fatalf("default delivery range expected, got %s", groups[1].DeliveryTime)
	}
}

func TestGroupByVendorFillsGapsFromPlaceholder(t *testing.T) {
	t.Parallel()

	partial := map[string]domain.VendorMetadata{"v5": {ID: "v5", Name: "Peckham Dairy", DeliveryTimeMax: 4}}
	groups := domain.GroupByVendor([]domain.LineItem{line("p1", "v5", 1.20, 2)}, partial)
	placeholder := domain.PlaceholderVendor("v5")
	if groups[0].Name != "Peckham Dairy" || groups[0].LogoURL != placeholder.LogoURL {
		t.Fatalf("missing logo should come from the placeholder: %+v", groups[0])
	}
	if groups[0].DeliveryTime != "2-4 days" {
		t.Fatalf("missing minimum should come from the placeholder, got %s", groups[0].DeliveryTime)
	}
	if placeholder.ID != "v5" || placeholder.Name != domain.UnknownVendorName {
		t.Fatalf("unexpected placeholder: %+v", placeholder)
	}
}

func TestGroupByVendorUnknownVendor(t *testing.T) {
	t.Parallel()

	item := line("p1", "", 4.00, 1)
	groups := domain.GroupByVendor([]domain.LineItem{item}, nil)
	if len(groups) != 1 || groups[0].ID != domain.UnknownVendorID {
		t.Fatalf("item without vendor should land in the unknown group: %+v", groups)
	}
	if ids := domain.VendorIDs([]domain.LineItem{item}); len(ids) != 0 {
		t.Fatalf("unknown vendor should not be looked up: %v", ids)
	}
}

func TestResolveVendorIDPrefersLineItem(t *testing.T) {
	t.Parallel()

	item := line("p1", "v1", 1, 1)
	item.Product.VendorID = "v2"
	if got := domain.ResolveVendorID(item); got != "v1" {
		t.Fatalf("line item vendor should win: got=%s", got)
	}
	item.VendorID = ""
	if got := domain.ResolveVendorID(item); got != "v2" {
		t.Fatalf("product vendor should be used: got=%s", got)
	}
}

func TestGroupByVendorEmptyCart(t *testing.T) {
	t.Parallel()

	groups := domain.GroupByVendor(nil, nil)
	if groups == nil || len(groups) != 0 {
		t.Fatalf("expected empty non-nil groups, got %#v", groups)
	}
}
