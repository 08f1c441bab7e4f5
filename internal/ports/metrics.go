package ports

const (
	LookupOutcomeHit      = "hit"
	LookupOutcomeMiss     = "miss"
	LookupOutcomeFallback = "fallback"
)

type CartMetrics interface {
	RecomputeApplied()
	RecomputeSuperseded()
	VendorLookup(outcome string)
}
