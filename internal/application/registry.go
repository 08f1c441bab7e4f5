package application

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

const (
	DefaultEngineIdleTTL = 30 * time.Minute
	DefaultMaxEngines    = 10000

	// capacity eviction leaves recently touched engines alone so a request
	// holding one never races a fresh engine for the same owner
	evictionGrace = time.Second
)

// Registry keeps one Engine per cart owner for hosts serving many shoppers.
// Idle engines are evicted; their state lives on in the snapshot store and
// comes back through Open.
type Registry struct {
	deps       Dependencies
	logger     *slog.Logger
	idleTTL    time.Duration
	maxEngines int
	nowFn      func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	owner    string
	engine   *Engine
	lastUsed time.Time

	loadMu     sync.Mutex
	rehydrated bool
}

type RegistryOption func(*Registry)

// WithIdleTTL sets how long an engine may go unused before eviction. Zero
// disables idle eviction.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = ttl }
}

// WithMaxEngines caps the number of live engines. Zero disables the cap.
func WithMaxEngines(n int) RegistryOption {
	return func(r *Registry) { r.maxEngines = n }
}

func NewRegistry(deps Dependencies, opts ...RegistryOption) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	r := &Registry{
		deps:       deps,
		logger:     logger.With("module", "application.registry", "layer", "application"),
		idleTTL:    DefaultEngineIdleTTL,
		maxEngines: DefaultMaxEngines,
		nowFn:      nowFn,
		entries:    make(map[string]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the owner's engine, creating an empty one if needed. It never rehydrates.
func (r *Registry) Get(owner string) *Engine {
	return r.entry(owner).engine
}

// Open returns the owner's engine, rehydrating it from storage until one load
// succeeds. The engine is usable even when rehydration fails, but it will not
// overwrite the stored snapshot until a later Open loads it.
func (r *Registry) Open(ctx context.Context, owner string) (*Engine, error) {
	entry := r.entry(owner)
	entry.loadMu.Lock()
	defer entry.loadMu.Unlock()
	if entry.rehydrated {
		return entry.engine, nil
	}
	if err := entry.engine.Rehydrate(ctx); err != nil {
		return entry.engine, err
	}
	entry.rehydrated = true
	return entry.engine, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Evict drops engines unused for longer than the idle TTL, then the least
// recently used ones while the registry is over capacity. Engines with a
// recompute in flight are kept. It returns the number of engines dropped.
func (r *Registry) Evict() int {
	limit := r.maxEngines
	if limit <= 0 {
		limit = -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictLocked(r.nowFn(), limit)
}

// RunEviction sweeps idle engines every interval until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.DebugContext(ctx, "idle carts evicted",
					"operation", "evict_engines",
					"outcome", "success",
					"evicted", n,
					"open_carts", r.Len(),
				)
			}
		}
	}
}

// WaitAll blocks until every live engine has settled or ctx is done.
func (r *Registry) WaitAll(ctx context.Context) error {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.entries))
	for _, entry := range r.entries {
		engines = append(engines, entry.engine)
	}
	r.mu.Unlock()
	for _, engine := range engines {
		if err := engine.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) entry(owner string) *registryEntry {
	now := r.nowFn()
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[owner]
	if !ok {
		if r.maxEngines > 0 && len(r.entries) >= r.maxEngines {
			r.evictLocked(now, r.maxEngines-1)
		}
		entry = &registryEntry{owner: owner, engine: NewEngine(owner, r.deps)}
		r.entries[owner] = entry
	}
	entry.lastUsed = now
	return entry
}

// evictLocked applies the idle TTL, then trims to limit entries. A negative
// limit skips the trim.
func (r *Registry) evictLocked(now time.Time, limit int) int {
	evicted := 0
	candidates := make([]*registryEntry, 0)
	for owner, entry := range r.entries {
		if !entry.engine.Idle() {
			continue
		}
		idleFor := now.Sub(entry.lastUsed)
		if r.idleTTL > 0 && idleFor >= r.idleTTL {
			delete(r.entries, owner)
			evicted++
			continue
		}
		if idleFor >= evictionGrace {
			candidates = append(candidates, entry)
		}
	}
	if limit < 0 || len(r.entries) <= limit {
		return evicted
	}
	slices.SortFunc(candidates, func(a, b *registryEntry) int {
		return a.lastUsed.Compare(b.lastUsed)
	})
	for _, entry := range candidates {
		if len(r.entries) <= limit {
			break
		}
		delete(r.entries, entry.owner)
		evicted++
	}
	return evicted
}
