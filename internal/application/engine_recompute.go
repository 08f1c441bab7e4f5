package application

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
)

type recomputePass struct {
	generation uint64
	items      []domain.LineItem
	serviceFee float64
	discount   float64
}

// CalculateTotals runs a recompute pass and returns once it has either been
// applied or superseded by a newer one.
func (e *Engine) CalculateTotals(ctx context.Context) {
	e.mu.Lock()
	pass := e.beginPassLocked()
	e.mu.Unlock()
	e.runPass(ctx, pass)
}

func (e *Engine) scheduleRecompute(ctx context.Context) {
	e.mu.Lock()
	pass := e.beginPassLocked()
	e.mu.Unlock()
	go e.runPass(context.WithoutCancel(ctx), pass)
}

func (e *Engine) beginPassLocked() recomputePass {
	e.generation++
	if e.pending == 0 {
		e.settled = make(chan struct{})
	}
	e.pending++
	return recomputePass{
		generation: e.generation,
		items:      domain.CloneItems(e.items),
		serviceFee: e.totals.ServiceFee,
		discount:   e.totals.Discount,
	}
}

func (e *Engine) endPassLocked() {
	e.pending--
	if e.pending == 0 {
		close(e.settled)
	}
}

func (e *Engine) finishPass() {
	e.mu.Lock()
	e.endPassLocked()
	e.mu.Unlock()
}

// runPass settles only after the applied result is persisted and published,
// so Wait also covers the write.
func (e *Engine) runPass(ctx context.Context, pass recomputePass) {
	defer e.finishPass()
	totals := domain.ComputeTotals(pass.items, e.cfg.Pricing, pass.serviceFee, pass.discount)
	metadata := e.resolveVendors(ctx, domain.VendorIDs(pass.items))
	groups := domain.GroupByVendor(pass.items, metadata)

	e.mu.Lock()
	superseded := pass.generation != e.generation
	if !superseded {
		e.totals = totals
		e.groups = groups
	}
	e.mu.Unlock()

	if superseded {
		e.metrics.RecomputeSuperseded()
		e.logger.DebugContext(ctx, "recompute discarded",
			"operation", "calculate_totals",
			"outcome", "superseded",
			"generation", pass.generation,
		)
		return
	}
	e.metrics.RecomputeApplied()
	e.logger.DebugContext(ctx, "recompute applied",
		"operation", "calculate_totals",
		"outcome", "success",
		"generation", pass.generation,
		"subtotal", totals.Subtotal,
		"total", totals.Total,
		"vendor_count", len(groups),
	)
	e.persist(ctx, "calculate_totals")
	e.publishUpdated(ctx, "recompute")
}

// resolveVendors returns metadata for the vendors it could resolve. Vendors
// whose lookup fails are left out so grouping falls back to placeholders,
// and they are retried by the next pass.
func (e *Engine) resolveVendors(ctx context.Context, vendorIDs []string) map[string]domain.VendorMetadata {
	out := make(map[string]domain.VendorMetadata, len(vendorIDs))
	missing := make([]string, 0, len(vendorIDs))
	e.mu.Lock()
	for _, id := range vendorIDs {
		if meta, ok := e.vendorCache[id]; ok {
			out[id] = meta
			e.metrics.VendorLookup(ports.LookupOutcomeHit)
			continue
		}
		missing = append(missing, id)
	}
	e.mu.Unlock()
	if len(missing) == 0 {
		return out
	}
	if e.vendors == nil {
		for range missing {
			e.metrics.VendorLookup(ports.LookupOutcomeFallback)
		}
		return out
	}

	results := make([]domain.VendorMetadata, len(missing))
	found := make([]bool, len(missing))
	var g errgroup.Group
	for i, id := range missing {
		i, id := i, id
		g.Go(func() error {
			meta, err := e.vendors.GetByID(ctx, id)
			if err != nil {
				e.metrics.VendorLookup(ports.LookupOutcomeFallback)
				e.logger.WarnContext(ctx, "vendor lookup failed, using placeholder",
					"operation", "resolve_vendor",
					"outcome", "fallback",
					"vendor_id", id,
					"error", err,
				)
				return nil
			}
			if meta.ID == "" {
				meta.ID = id
			}
			results[i] = meta
			found[i] = true
			e.metrics.VendorLookup(ports.LookupOutcomeMiss)
			return nil
		})
	}
	_ = g.Wait()

	e.mu.Lock()
	for i, id := range missing {
		if !found[i] {
			continue
		}
		e.vendorCache[id] = results[i]
		out[id] = results[i]
	}
	e.mu.Unlock()
	return out
}
