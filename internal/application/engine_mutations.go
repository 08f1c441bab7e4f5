package application

import (
	"context"
	"strings"

	"github.com/zoramarket/cart-service/internal/domain"
)

// AddItem merges quantity into the existing line for the product, or appends
// a new line holding the product snapshot. Non-positive quantities and
// products without an id are ignored.
func (e *Engine) AddItem(ctx context.Context, product domain.ProductSnapshot, quantity int) {
	if quantity <= 0 {
		e.logger.DebugContext(ctx, "add item ignored",
			"operation", "add_item",
			"outcome", "ignored",
			"product_id", product.ID,
			"quantity", quantity,
		)
		return
	}
	if strings.TrimSpace(product.ID) == "" {
		e.logger.WarnContext(ctx, "add item ignored",
			"operation", "add_item",
			"outcome", "ignored",
			"reason", "missing product id",
		)
		return
	}

	e.mu.Lock()
	if idx := e.indexLocked(product.ID); idx >= 0 {
		e.items[idx].Quantity += quantity
	} else {
		e.items = append(e.items, domain.LineItem{
			ProductID: product.ID,
			VendorID:  product.VendorID,
			Quantity:  quantity,
			Product:   product,
		})
	}
	e.mu.Unlock()

	e.afterMutation(ctx, "add_item")
}

// AddOne adds a single unit.
func (e *Engine) AddOne(ctx context.Context, product domain.ProductSnapshot) {
	e.AddItem(ctx, product, 1)
}

func (e *Engine) RemoveItem(ctx context.Context, productID string) {
	e.mu.Lock()
	if idx := e.indexLocked(productID); idx >= 0 {
		e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
	}
	e.mu.Unlock()

	e.afterMutation(ctx, "remove_item")
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		e.RemoveItem(ctx, productID)
		return
	}

	e.mu.Lock()
	if idx := e.indexLocked(productID); idx >= 0 {
		e.items[idx].Quantity = quantity
	}
	e.mu.Unlock()

	e.afterMutation(ctx, "update_quantity")
}

// ClearCart resets the cart to its empty state without a recompute pass.
// Passes still in flight are superseded.
func (e *Engine) ClearCart(ctx context.Context) {
	e.mu.Lock()
	e.items = []domain.LineItem{}
	e.groups = []domain.VendorGroup{}
	e.totals = domain.Totals{ServiceFee: e.totals.ServiceFee}
	e.promoCode = nil
	e.generation++
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "cart cleared", "operation", "clear_cart", "outcome", "success")
	e.persist(ctx, "clear_cart")
	e.publishUpdated(ctx, "clear_cart")
}

// ApplyPromoCode records the code. Validation and the resulting discount
// belong to the promo service; see SetDiscount.
func (e *Engine) ApplyPromoCode(ctx context.Context, code string) {
	code = strings.TrimSpace(code)
	e.mu.Lock()
	if code == "" {
		e.promoCode = nil
	} else {
		e.promoCode = &code
	}
	e.mu.Unlock()

	e.persist(ctx, "apply_promo_code")
}

// SetDiscount sets the externally priced discount and recomputes the total.
func (e *Engine) SetDiscount(ctx context.Context, amount float64) {
	if amount < 0 {
		amount = 0
	}
	e.mu.Lock()
	e.totals.Discount = domain.Round2(amount)
	e.mu.Unlock()

	e.afterMutation(ctx, "set_discount")
}

func (e *Engine) indexLocked(productID string) int {
	for i := range e.items {
		if e.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) afterMutation(ctx context.Context, operation string) {
	e.persist(ctx, operation)
	e.scheduleRecompute(ctx)
}
