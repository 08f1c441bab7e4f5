package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zoramarket/cart-service/internal/application"
	"github.com/zoramarket/cart-service/internal/domain"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	// set when a response went out before the cart's recompute settled
	headerCartRecomputing = "X-Cart-Recomputing"
)

type errorResponse struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type cartResponse struct {
	Status string           `json:"status"`
	Data   application.View `json:"data"`
}

type itemCountData struct {
	Owner     string `json:"owner"`
	ItemCount int    `json:"item_count"`
}

type itemCountResponse struct {
	Status string        `json:"status"`
	Data   itemCountData `json:"data"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Check   string `json:"check"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// Cart payloads are per shopper and change on every mutation.
func writeCartJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, payload)
}

func writeCart(w http.ResponseWriter, view application.View) {
	if view.Recomputing {
		w.Header().Set(headerCartRecomputing, "true")
	}
	writeCartJSON(w, cartResponse{Status: statusSuccess, Data: view})
}

func writeItemCount(w http.ResponseWriter, owner string, count int) {
	writeCartJSON(w, itemCountResponse{
		Status: statusSuccess,
		Data:   itemCountData{Owner: owner, ItemCount: count},
	})
}

// writeSnapshot writes the bare snapshot that remote sync clients decode.
func writeSnapshot(w http.ResponseWriter, snapshot domain.Snapshot) {
	writeCartJSON(w, snapshot)
}

func writeHealth(w http.ResponseWriter, check string) {
	writeJSON(w, http.StatusOK, healthResponse{Status: statusSuccess, Service: serviceName, Check: check})
}

func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{
		Status:    statusError,
		Code:      code,
		Message:   message,
		RequestID: requestIDFromContext(ctx),
	})
}
