package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/zoramarket/cart-service/internal/application"
	"github.com/zoramarket/cart-service/internal/domain"
)

type stubVendors struct {
	mu    sync.Mutex
	byID  map[string]domain.VendorMetadata
	fail  map[string]error
	calls map[string]int
}

func newStubVendors(vendors ...domain.VendorMetadata) *stubVendors {
	s := &stubVendors{
		byID:  make(map[string]domain.VendorMetadata),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
	for _, v := range vendors {
		s.byID[v.ID] = v
	}
	return s
}

func (s *stubVendors) GetByID(_ context.Context, vendorID string) (domain.VendorMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[vendorID]++
	if err, ok := s.fail[vendorID]; ok {
		return domain.VendorMetadata{}, err
	}
	v, ok := s.byID[vendorID]
	if !ok {
		return domain.VendorMetadata{}, fmt.Errorf("vendor %q: %w", vendorID, domain.ErrNotFound)
	}
	return v, nil
}

func (s *stubVendors) callsFor(vendorID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[vendorID]
}

// gatedVendors blocks the first lookup until release is closed.
type gatedVendors struct {
	next    *stubVendors
	mu      sync.Mutex
	first   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedVendors(next *stubVendors) *gatedVendors {
	return &gatedVendors{
		next:    next,
		first:   true,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedVendors) GetByID(ctx context.Context, vendorID string) (domain.VendorMetadata, error) {
	g.mu.Lock()
	block := g.first
	g.first = false
	g.mu.Unlock()
	if block {
		close(g.entered)
		<-g.release
	}
	return g.next.GetByID(ctx, vendorID)
}

type memoryStore struct {
	mu        sync.Mutex
	values    map[string][]byte
	saves     int
	loadErr   error
	failLoads int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string][]byte)}
}

func (s *memoryStore) Load(_ context.Context, key string) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return domain.Snapshot{}, false, s.loadErr
	}
	if s.failLoads > 0 {
		s.failLoads--
		return domain.Snapshot{}, false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, errBoom)
	}
	raw, ok := s.values[key]
	if !ok {
		return domain.Snapshot{}, false, nil
	}
	var out domain.Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Snapshot{}, false, err
	}
	return out, true, nil
}

func (s *memoryStore) Save(_ context.Context, key string, snapshot domain.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	s.saves++
	return nil
}

func (s *memoryStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memoryStore) failNextLoads(n int) {
	s.mu.Lock()
	s.failLoads = n
	s.mu.Unlock()
}

func (s *memoryStore) storedUnits(t *testing.T, key string) int {
	t.Helper()
	snapshot, ok, err := s.Load(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("load %s: ok=%v err=%v", key, ok, err)
	}
	return domain.ItemCount(snapshot.Items)
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

type stubSessions struct {
	tokens map[string]string
}

func (s stubSessions) AccessToken(_ context.Context, owner string) (string, bool) {
	token, ok := s.tokens[owner]
	return token, ok
}

type stubRemote struct {
	mu       sync.Mutex
	snapshot domain.Snapshot
	err      error
	tokens   []string
}

func (r *stubRemote) FetchCart(_ context.Context, token string) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	if r.err != nil {
		return domain.Snapshot{}, r.err
	}
	return r.snapshot, nil
}

func (r *stubRemote) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type publishedEvent struct {
	eventType    string
	partitionKey string
	payload      map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, partitionKey: partitionKey, payload: decoded})
	return nil
}

func (p *recordingPublisher) snapshot() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type countingMetrics struct {
	mu         sync.Mutex
	applied    int
	superseded int
	lookups    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{lookups: make(map[string]int)}
}

func (m *countingMetrics) RecomputeApplied() {
	m.mu.Lock()
	m.applied++
	m.mu.Unlock()
}

func (m *countingMetrics) RecomputeSuperseded() {
	m.mu.Lock()
	m.superseded++
	m.mu.Unlock()
}

func (m *countingMetrics) VendorLookup(outcome string) {
	m.mu.Lock()
	m.lookups[outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) counts() (applied, superseded int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied, m.superseded
}

func (m *countingMetrics) lookupCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups[outcome]
}

var errBoom = errors.New("boom")

type fixture struct {
	vendors   *stubVendors
	store     *memoryStore
	publisher *recordingPublisher
	metrics   *countingMetrics
	deps      application.Dependencies
}

func newFixture() *fixture {
	f := &fixture{
		vendors: newStubVendors(
			domain.VendorMetadata{ID: "v1", Name: "Hackney Greengrocer", LogoURL: "https://cdn.example/v1.png", DeliveryTimeMin: 1, DeliveryTimeMax: 2},
			domain.VendorMetadata{ID: "v2", Name: "Dalston Bakehouse", LogoURL: "https://cdn.example/v2.png", DeliveryTimeMin: 1, DeliveryTimeMax: 1},
		),
		store:     newMemoryStore(),
		publisher: &recordingPublisher{},
		metrics:   newCountingMetrics(),
	}
	f.deps = application.Dependencies{
		Config: application.Config{
			ServiceName: "cart-service-test",
			Pricing:     domain.DefaultPricingPolicy(),
		},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Vendors:   f.vendors,
		Store:     f.store,
		Publisher: f.publisher,
		Metrics:   f.metrics,
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *fixture) engine(owner string) *application.Engine {
	return application.NewEngine(owner, f.deps)
}

func product(id, vendorID string, price float64) domain.ProductSnapshot {
	return domain.ProductSnapshot{ID: id, VendorID: vendorID, Name: "product " + id, Price: price}
}

func settle(t *testing.T, e *application.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("engine did not settle: %v", err)
	}
}
