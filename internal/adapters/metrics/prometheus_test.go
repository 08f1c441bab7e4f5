package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/zoramarket/cart-service/internal/adapters/metrics"
	"github.com/zoramarket/cart-service/internal/ports"
)

func TestCollectorsCountOutcomes(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.New(reg)
	c.RecomputeApplied()
	c.RecomputeApplied()
	c.RecomputeSuperseded()
	c.VendorLookup(ports.LookupOutcomeHit)
	c.VendorLookup(ports.LookupOutcomeFallback)

	expected := `
# HELP cart_recompute_total Recompute passes by outcome (applied or superseded).
# TYPE cart_recompute_total counter
cart_recompute_total{outcome="applied"} 2
cart_recompute_total{outcome="superseded"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cart_recompute_total"); err != nil {
		t.Fatalf("unexpected recompute metrics: %v", err)
	}
	if got, err := testutil.GatherAndCount(reg, "cart_vendor_lookup_total"); err != nil || got != 2 {
		t.Fatalf("vendor lookup series: got=%d want=2 err=%v", got, err)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.New(reg)
	c.RecomputeApplied()

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `cart_recompute_total{outcome="applied"} 1`) {
		t.Fatalf("metrics body missing counter:\n%s", body)
	}
}
