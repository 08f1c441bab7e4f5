package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/zoramarket/cart-service/internal/adapters/events"
)

type capturePublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *capturePublisher) Publish(_ context.Context, _ string, _ []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, partitionKey)
	return p.err
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueuedPublisherDeliversInOrder(t *testing.T) {
	t.Parallel()

	next := &capturePublisher{}
	pub := events.NewQueuedPublisher(quietLogger(), next, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pub.Run(ctx)
	}()

	for _, key := range []string{"a", "b", "c"} {
		if err := pub.Publish(context.Background(), "cart.updated", []byte(`{}`), key); err != nil {
			t.Fatalf("publish %s failed: %v", key, err)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for next.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	next.mu.Lock()
	defer next.mu.Unlock()
	if len(next.keys) != 3 || next.keys[0] != "a" || next.keys[2] != "c" {
		t.Fatalf("unexpected delivery order: %v", next.keys)
	}
}

func TestQueuedPublisherDropsWhenFull(t *testing.T) {
	t.Parallel()

	pub := events.NewQueuedPublisher(quietLogger(), &capturePublisher{}, 1)
	if err := pub.Publish(context.Background(), "cart.updated", nil, "a"); err != nil {
		t.Fatalf("first publish should fit: %v", err)
	}
	if err := pub.Publish(context.Background(), "cart.updated", nil, "b"); !errors.Is(err, events.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestQueuedPublisherFlushesOnShutdown(t *testing.T) {
	t.Parallel()

	next := &capturePublisher{err: errors.New("broker down")}
	pub := events.NewQueuedPublisher(quietLogger(), next, 4)
	_ = pub.Publish(context.Background(), "cart.updated", nil, "a")
	_ = pub.Publish(context.Background(), "cart.updated", nil, "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("run should stop with context.Canceled, got %v", err)
	}
	if next.count() != 2 {
		t.Fatalf("queued events should be flushed on shutdown, got %d", next.count())
	}
	if err := pub.Publish(context.Background(), "cart.updated", nil, "c"); err == nil {
		t.Fatalf("publish after shutdown should fail")
	}
}

func TestLoggingPublisherNeverFails(t *testing.T) {
	t.Parallel()

	if err := events.NewLoggingPublisher(quietLogger()).Publish(context.Background(), "cart.updated", []byte(`{}`), "k"); err != nil {
		t.Fatalf("logging publisher failed: %v", err)
	}
}
