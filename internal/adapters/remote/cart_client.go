package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
)

// CartClient fetches the server-side copy of a cart.
type CartClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CartClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *CartClient) FetchCart(ctx context.Context, token string) (domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cart", nil)
	if err != nil {
		return domain.Snapshot{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: fetch cart: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Snapshot{}, fmt.Errorf("%w: remote cart returned %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return domain.Snapshot{}, fmt.Errorf("%w: remote cart returned %d", domain.ErrDependencyUnavailable, resp.StatusCode)
	}

	var out domain.Snapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: decode remote cart: %v", domain.ErrDependencyUnavailable, err)
	}
	if out.Items == nil {
		out.Items = []domain.LineItem{}
	}
	if out.Vendors == nil {
		out.Vendors = []domain.VendorGroup{}
	}
	return out, nil
}

var _ ports.RemoteCart = (*CartClient)(nil)
