package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingPolicy holds the externally defined fee constants.
type PricingPolicy struct {
	FreeDeliveryThreshold float64
	DeliveryFee           float64
	ServiceFee            float64
	Currency              string
}

func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeDeliveryThreshold: 29.99,
		DeliveryFee:           2.50,
		ServiceFee:            0.50,
		Currency:              "GBP",
	}
}

func (p PricingPolicy) Validate() error {
	if p.FreeDeliveryThreshold < 0 || p.DeliveryFee < 0 || p.ServiceFee < 0 {
		return fmt.Errorf("%w: pricing amounts must be non-negative", ErrInvalidInput)
	}
	if len(p.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidInput)
	}
	return nil
}

// Round2 rounds half away from zero to currency minor units.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func lineTotal(item LineItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(lineTotal(item))
	}
	return sum.Round(2)
}

// deliveryFee applies the order-level free delivery threshold.
func (p PricingPolicy) deliveryFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(decimal.NewFromFloat(p.FreeDeliveryThreshold)) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p.DeliveryFee).Round(2)
}

// ComputeTotals derives the cart totals from the item list. serviceFee and
// discount are inputs: the first comes from the policy or a server sync, the
// second from an external promo or loyalty source.
func ComputeTotals(items []LineItem, policy PricingPolicy, serviceFee, discount float64) Totals {
	sub := subtotal(items)
	delivery := policy.deliveryFee(sub)
	service := decimal.NewFromFloat(serviceFee)
	disc := decimal.NewFromFloat(discount)
	total := sub.Add(delivery).Add(service).Sub(disc).Round(2)
	return Totals{
		Subtotal:    sub.InexactFloat64(),
		DeliveryFee: delivery.InexactFloat64(),
		ServiceFee:  Round2(serviceFee),
		Discount:    Round2(discount),
		Total:       total.InexactFloat64(),
	}
}
