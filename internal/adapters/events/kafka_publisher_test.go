package events

import (
	"testing"
	"time"
)

func TestKafkaMessageKeyedByOwnerWithHeaders(t *testing.T) {
	t.Parallel()

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, map[string]string{"cart.updated": "cart-updated-v1"})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer p.Close()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.nowFn = func() time.Time { return fixed }

	msg, err := p.message("cart.updated", []byte(`{"owner":"user-1"}`), "user-1")
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if msg.Topic != "cart-updated-v1" {
		t.Fatalf("expected mapped topic, got %q", msg.Topic)
	}
	if string(msg.Key) != "user-1" {
		t.Fatalf("expected owner key, got %q", msg.Key)
	}
	if !msg.Time.Equal(fixed) {
		t.Fatalf("unexpected message time %v", msg.Time)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers[headerEventType] != "cart.updated" || headers[headerContentType] != "application/json" {
		t.Fatalf("unexpected headers %v", headers)
	}

	unmapped, err := p.message("cart.cleared", nil, "guest-1")
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if unmapped.Topic != "cart.cleared" {
		t.Fatalf("unmapped events fall back to their type as topic, got %q", unmapped.Topic)
	}
}

func TestKafkaMessageRequiresOwner(t *testing.T) {
	t.Parallel()

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer p.Close()
	if _, err := p.message("cart.updated", []byte(`{}`), ""); err == nil {
		t.Fatal("expected keyless message to be rejected")
	}
}

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	t.Parallel()

	if _, err := NewKafkaPublisher(nil, nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}
