package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	UnknownVendorID        = "unknown"
	UnknownVendorName      = "Unknown Vendor"
	PlaceholderVendorLogo  = "https://api.dicebear.com/7.x/identicon/svg?seed=Vendor&size=40"
	DefaultDeliveryMinDays = 2
	DefaultDeliveryMaxDays = 3
)

// ResolveVendorID picks the item's vendor: explicit id, then the product's, then the sentinel.
func ResolveVendorID(item LineItem) string {
	if item.VendorID != "" {
		return item.VendorID
	}
	if item.Product.VendorID != "" {
		return item.Product.VendorID
	}
	return UnknownVendorID
}

// VendorIDs lists the distinct resolvable vendor ids in first-appearance order.
func VendorIDs(items []LineItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		id := ResolveVendorID(item)
		if id == UnknownVendorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// PlaceholderVendor is the neutral metadata a group falls back to for any
// field that neither the lookup nor the product's embedded vendor supplies.
func PlaceholderVendor(vendorID string) VendorMetadata {
	return VendorMetadata{
		ID:              vendorID,
		Name:            UnknownVendorName,
		LogoURL:         PlaceholderVendorLogo,
		DeliveryTimeMin: DefaultDeliveryMinDays,
		DeliveryTimeMax: DefaultDeliveryMaxDays,
	}
}

func deliveryRange(minDays, maxDays int) string {
	return fmt.Sprintf("%d-%d days", minDays, maxDays)
}

// GroupByVendor partitions items by vendor. Every item lands in exactly one
// group; groups keep the order in which their vendor first appears.
func GroupByVendor(items []LineItem, metadata map[string]VendorMetadata) []VendorGroup {
	groups := make([]VendorGroup, 0)
	sums := make([]decimal.Decimal, 0)
	index := make(map[string]int)
	for _, item := range items {
		vendorID := ResolveVendorID(item)
		idx, ok := index[vendorID]
		if !ok {
			idx = len(groups)
			index[vendorID] = idx
			groups = append(groups, newGroup(vendorID, item, metadata[vendorID]))
			sums = append(sums, decimal.Zero)
		}
		groups[idx].Items = append(groups[idx].Items, item)
		sums[idx] = sums[idx].Add(lineTotal(item))
	}
	for i := range groups {
		groups[i].Subtotal = sums[i].Round(2).InexactFloat64()
	}
	return groups
}

func newGroup(vendorID string, first LineItem, meta VendorMetadata) VendorGroup {
	var embedded VendorRef
	if first.Product.Vendor != nil {
		embedded = *first.Product.Vendor
	}
	placeholder := PlaceholderVendor(vendorID)
	minDays, maxDays := meta.DeliveryTimeMin, meta.DeliveryTimeMax
	if minDays <= 0 {
		minDays = placeholder.DeliveryTimeMin
	}
	if maxDays <= 0 {
		maxDays = placeholder.DeliveryTimeMax
	}
	return VendorGroup{
		ID:           vendorID,
		Name:         firstNonEmpty(meta.Name, embedded.Name, embedded.ShopName, placeholder.Name),
		LogoURL:      firstNonEmpty(meta.LogoURL, embedded.LogoURL, placeholder.LogoURL),
		DeliveryTime: deliveryRange(minDays, maxDays),
		Items:        make([]LineItem, 0, 1),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
