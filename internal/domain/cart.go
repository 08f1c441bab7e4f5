package domain

// VendorRef is the vendor data a product record may carry inline.
type VendorRef struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	ShopName string `json:"shop_name,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// ProductSnapshot is the product data captured when an item is added.
// Prices are not refreshed afterwards.
type ProductSnapshot struct {
	ID       string     `json:"id"`
	VendorID string     `json:"vendor_id,omitempty"`
	Name     string     `json:"name"`
	Price    float64    `json:"price"`
	ImageURL string     `json:"image_url,omitempty"`
	Category string     `json:"category,omitempty"`
	Vendor   *VendorRef `json:"vendor,omitempty"`
}

type LineItem struct {
	ProductID string          `json:"product_id"`
	VendorID  string          `json:"vendor_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Product   ProductSnapshot `json:"product"`
}

type VendorMetadata struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	LogoURL         string `json:"logo_url"`
	DeliveryTimeMin int    `json:"delivery_time_min"`
	DeliveryTimeMax int    `json:"delivery_time_max"`
}

// VendorGroup is derived state, rebuilt from scratch on every recompute.
type VendorGroup struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	LogoURL      string     `json:"logo_url"`
	DeliveryTime string     `json:"delivery_time"`
	Subtotal     float64    `json:"subtotal"`
	Items        []LineItem `json:"items"`
}

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	ServiceFee  float64 `json:"service_fee"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

// Snapshot is the persisted and synced shape of a cart.
type Snapshot struct {
	Items       []LineItem    `json:"items"`
	Vendors     []VendorGroup `json:"vendors"`
	Subtotal    float64       `json:"subtotal"`
	DeliveryFee float64       `json:"delivery_fee"`
	ServiceFee  float64       `json:"service_fee"`
	Discount    float64       `json:"discount"`
	Total       float64       `json:"total"`
	PromoCode   *string       `json:"promo_code"`
}

func (s Snapshot) Totals() Totals {
	return Totals{
		Subtotal:    s.Subtotal,
		DeliveryFee: s.DeliveryFee,
		ServiceFee:  s.ServiceFee,
		Discount:    s.Discount,
		Total:       s.Total,
	}
}

// ItemCount returns total units, not distinct products.
func ItemCount(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Product.Vendor != nil {
			ref := *item.Product.Vendor
			out[i].Product.Vendor = &ref
		}
	}
	return out
}

func CloneGroups(groups []VendorGroup) []VendorGroup {
	if groups == nil {
		return []VendorGroup{}
	}
	out := make([]VendorGroup, len(groups))
	for i, group := range groups {
		out[i] = group
		out[i].Items = CloneItems(group.Items)
	}
	return out
}
