package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zoramarket/cart-service/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, "live")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	for _, dep := range h.readiness {
		if err := dep.check(r.Context()); err != nil {
			logCartDegraded(r.Context(), "readyz", "dependency not ready", fmt.Errorf("%s: %w", dep.name, err))
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", dep.name+" is unavailable")
			return
		}
	}
	writeHealth(w, "ready")
}

// ownerMiddleware resolves the cart owner from a bearer session or, for
// anonymous shoppers, the X-Guest-Id header.
func (h *Handler) ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			h.sessionMiddleware(next).ServeHTTP(w, r)
			return
		}
		guest := r.Header.Get("X-Guest-Id")
		if guest == "" {
			writeUnauthorizedError(r.Context(), w, "resolve_owner", "missing bearer token or guest id")
			return
		}
		owner, err := guestOwnerFromHeader(guest)
		if err != nil {
			writeValidationError(r.Context(), w, "resolve_owner", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyOwner, owner)))
	})
}

func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeUnauthorizedError(r.Context(), w, "authenticate", "missing bearer token")
			return
		}
		owner, err := h.sessions.Authenticate(raw)
		if err != nil {
			writeMappedError(r.Context(), w, "authenticate", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyOwner, owner)))
	})
}

// engineFor opens the owner's cart, rehydrating it on first use. A failed
// rehydrate is logged and the cart is still served; it is retried on the
// next request and nothing is saved until it succeeds.
func (h *Handler) engineFor(r *http.Request, operation string) (*application.Engine, bool) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		return nil, false
	}
	engine, err := h.carts.Open(r.Context(), owner)
	if err != nil {
		logCartDegraded(r.Context(), operation, "cart rehydrate failed, serving unsaved cart", err)
	}
	return engine, true
}

// settle waits for in-flight recomputes so the response reflects the
// mutation. On timeout the view is returned with recomputing set.
func (h *Handler) settle(ctx context.Context, engine *application.Engine) {
	waitCtx, cancel := context.WithTimeout(ctx, h.settleTimeout)
	defer cancel()
	_ = engine.Wait(waitCtx)
}

func (h *Handler) writeView(w http.ResponseWriter, r *http.Request, engine *application.Engine) {
	h.settle(r.Context(), engine)
	writeCart(w, engine.View())
}
