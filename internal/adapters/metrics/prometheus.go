package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zoramarket/cart-service/internal/ports"
)

const namespace = "cart"

// Collectors holds the cart engine counters and the HTTP server metrics.
type Collectors struct {
	recomputes    *prometheus.CounterVec
	vendorLookups *prometheus.CounterVec
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

// New registers every collector on reg. Passing a fresh prometheus.Registry
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Collectors {
	recomputes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recompute_total",
		Help:      "Recompute passes by outcome (applied or superseded).",
	}, []string{"outcome"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_lookup_total",
		Help:      "Vendor metadata resolutions by outcome.",
	}, []string{"outcome"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})

	reg.MustRegister(recomputes, lookups, requests, latency)
	return &Collectors{
		recomputes:    recomputes,
		vendorLookups: lookups,
		Requests:      requests,
		LatencyMS:     latency,
		gatherer:      reg,
	}
}

func (c *Collectors) RecomputeApplied() {
	c.recomputes.WithLabelValues("applied").Inc()
}

func (c *Collectors) RecomputeSuperseded() {
	c.recomputes.WithLabelValues("superseded").Inc()
}

func (c *Collectors) VendorLookup(outcome string) {
	c.vendorLookups.WithLabelValues(outcome).Inc()
}

func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

var _ ports.CartMetrics = (*Collectors)(nil)
