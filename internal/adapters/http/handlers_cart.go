package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/zoramarket/cart-service/internal/domain"
)

type addItemRequest struct {
	Product  domain.ProductSnapshot `json:"product"`
	Quantity *int                   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

type setDiscountRequest struct {
	Amount float64 `json:"amount"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "get_cart")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "get_cart", "missing cart owner")
		return
	}
	h.writeView(w, r, engine)
}

func (h *Handler) itemCount(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "item_count")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "item_count", "missing cart owner")
		return
	}
	writeItemCount(w, engine.Owner(), engine.ItemCount())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "add_item", err)
		return
	}
	req.Product.ID = strings.TrimSpace(req.Product.ID)
	if req.Product.ID == "" {
		writeValidationError(r.Context(), w, "add_item", errors.New("product.id is required"))
		return
	}
	if req.Product.Price < 0 {
		writeValidationError(r.Context(), w, "add_item", errors.New("product.price must not be negative"))
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 {
		writeValidationError(r.Context(), w, "add_item", errors.New("quantity must be positive"))
		return
	}

	engine, ok := h.engineFor(r, "add_item")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "add_item", "missing cart owner")
		return
	}
	engine.AddItem(r.Context(), req.Product, quantity)
	h.writeView(w, r, engine)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_quantity", err)
		return
	}
	if req.Quantity == nil {
		writeValidationError(r.Context(), w, "update_quantity", errors.New("quantity is required"))
		return
	}
	engine, ok := h.engineFor(r, "update_quantity")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "update_quantity", "missing cart owner")
		return
	}
	engine.UpdateQuantity(r.Context(), chi.URLParam(r, "product_id"), *req.Quantity)
	h.writeView(w, r, engine)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "remove_item")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "remove_item", "missing cart owner")
		return
	}
	engine.RemoveItem(r.Context(), chi.URLParam(r, "product_id"))
	h.writeView(w, r, engine)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "clear_cart")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "clear_cart", "missing cart owner")
		return
	}
	engine.ClearCart(r.Context())
	h.writeView(w, r, engine)
}

func (h *Handler) applyPromo(w http.ResponseWriter, r *http.Request) {
	var req applyPromoRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "apply_promo", err)
		return
	}
	engine, ok := h.engineFor(r, "apply_promo")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "apply_promo", "missing cart owner")
		return
	}
	engine.ApplyPromoCode(r.Context(), req.Code)
	h.writeView(w, r, engine)
}

func (h *Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	var req setDiscountRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "set_discount", err)
		return
	}
	engine, ok := h.engineFor(r, "set_discount")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "set_discount", "missing cart owner")
		return
	}
	engine.SetDiscount(r.Context(), req.Amount)
	h.writeView(w, r, engine)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "refresh")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "refresh", "missing cart owner")
		return
	}
	engine.CalculateTotals(r.Context())
	h.writeView(w, r, engine)
}

func (h *Handler) syncCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "sync_cart")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "sync_cart", "missing cart owner")
		return
	}
	engine.FetchCart(r.Context())
	h.writeView(w, r, engine)
}

func (h *Handler) rehydrate(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "rehydrate")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "rehydrate", "missing cart owner")
		return
	}
	if err := engine.Rehydrate(r.Context()); err != nil {
		writeMappedError(r.Context(), w, "rehydrate", err)
		return
	}
	h.writeView(w, r, engine)
}

// serverCart serves the persisted snapshot shape that remote sync clients read.
func (h *Handler) serverCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engineFor(r, "server_cart")
	if !ok {
		writeUnauthorizedError(r.Context(), w, "server_cart", "missing cart owner")
		return
	}
	h.settle(r.Context(), engine)
	writeSnapshot(w, engine.Snapshot())
}
