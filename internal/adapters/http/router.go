package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zoramarket/cart-service/internal/adapters/metrics"
	"github.com/zoramarket/cart-service/internal/application"
)

// Authenticator turns a bearer token into a cart owner id.
type Authenticator interface {
	Authenticate(raw string) (string, error)
}

// Handler is the HTTP adapter entrypoint for cart use-cases.
type Handler struct {
	carts         *application.Registry
	sessions      Authenticator
	settleTimeout time.Duration
	readiness     []readinessCheck
}

type readinessCheck struct {
	name  string
	check func(context.Context) error
}

// NewHandler binds the adapter to the cart registry. settleTimeout bounds how
// long a response waits for in-flight recomputes before returning the view.
func NewHandler(carts *application.Registry, sessions Authenticator, settleTimeout time.Duration) *Handler {
	if settleTimeout <= 0 {
		settleTimeout = 2 * time.Second
	}
	return &Handler{carts: carts, sessions: sessions, settleTimeout: settleTimeout}
}

// WithReadinessCheck adds a dependency that /readyz must reach before the
// service reports ready.
func (h *Handler) WithReadinessCheck(name string, check func(context.Context) error) *Handler {
	h.readiness = append(h.readiness, readinessCheck{name: name, check: check})
	return h
}

// NewRouter registers cart routes and the middleware stack. collectors may be
// nil, in which case /metrics is not served.
func NewRouter(handler *Handler, collectors *metrics.Collectors) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	if collectors != nil {
		r.Use(metricsMiddleware(collectors))
		r.Method(http.MethodGet, "/metrics", collectors.Handler())
	}

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Group(func(r chi.Router) {
		r.Use(handler.sessionMiddleware)
		r.Get("/cart", handler.serverCart)
	})

	r.Route("/v1/cart", func(r chi.Router) {
		r.Use(handler.ownerMiddleware)
		r.Get("/", handler.getCart)
		r.Delete("/", handler.clearCart)
		r.Get("/count", handler.itemCount)
		r.Post("/items", handler.addItem)
		r.Put("/items/{product_id}", handler.updateQuantity)
		r.Delete("/items/{product_id}", handler.removeItem)
		r.Post("/promo", handler.applyPromo)
		r.Post("/discount", handler.setDiscount)
		r.Post("/refresh", handler.refresh)
		r.Post("/sync", handler.syncCart)
		r.Post("/rehydrate", handler.rehydrate)
	})

	return r
}
