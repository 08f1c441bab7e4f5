package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/zoramarket/cart-service/internal/ports"
)

var ErrQueueFull = errors.New("event queue full")

type queuedEvent struct {
	eventType    string
	payload      []byte
	partitionKey string
}

// QueuedPublisher hands events to a background worker so cart mutations never
// wait on the broker. Events that do not fit in the queue are dropped.
type QueuedPublisher struct {
	logger *slog.Logger
	next   ports.EventPublisher
	queue  chan queuedEvent
	done   chan struct{}
	once   sync.Once
}

func NewQueuedPublisher(logger *slog.Logger, next ports.EventPublisher, size int) *QueuedPublisher {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueuedPublisher{
		logger: logger,
		next:   next,
		queue:  make(chan queuedEvent, size),
		done:   make(chan struct{}),
	}
}

func (p *QueuedPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	select {
	case <-p.done:
		return context.Canceled
	default:
	}
	select {
	case p.queue <- queuedEvent{eventType: eventType, payload: payload, partitionKey: partitionKey}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (p *QueuedPublisher) Run(ctx context.Context) error {
	defer p.once.Do(func() { close(p.done) })
	for {
		select {
		case <-ctx.Done():
			p.flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case evt := <-p.queue:
			p.deliver(ctx, evt)
		}
	}
}

func (p *QueuedPublisher) flush(ctx context.Context) {
	for {
		select {
		case evt := <-p.queue:
			p.deliver(ctx, evt)
		default:
			return
		}
	}
}

func (p *QueuedPublisher) deliver(ctx context.Context, evt queuedEvent) {
	if err := p.next.Publish(ctx, evt.eventType, evt.payload, evt.partitionKey); err != nil {
		p.logger.ErrorContext(ctx, "event delivery failed",
			"module", "events.queued_publisher",
			"layer", "adapter",
			"operation", "deliver",
			"outcome", "failure",
			"event_type", evt.eventType,
			"error", err,
		)
	}
}

var _ ports.EventPublisher = (*QueuedPublisher)(nil)
