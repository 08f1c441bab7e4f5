package ports

import (
	"context"

	"github.com/zoramarket/cart-service/internal/domain"
)

// SessionSource exposes the active session token for a cart owner.
type SessionSource interface {
	AccessToken(ctx context.Context, owner string) (string, bool)
}

// RemoteCart fetches the server-side cart for an authenticated session.
type RemoteCart interface {
	FetchCart(ctx context.Context, token string) (domain.Snapshot, error)
}
