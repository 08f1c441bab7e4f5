package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	headerEventType   = "event_type"
	headerContentType = "content_type"
)

// KafkaPublisher writes cart events keyed by cart owner, so every change to
// one cart lands on the same partition in order.
type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
	nowFn        func() time.Time
}

func NewKafkaPublisher(brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			// recompute bursts emit several events per cart; batch them briefly
			BatchTimeout: 20 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		topicByEvent: topicByEvent,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	msg, err := p.message(eventType, payload, partitionKey)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", eventType, msg.Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) message(eventType string, payload []byte, partitionKey string) (kafka.Message, error) {
	topic := eventType
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		topic = mapped
	}
	if partitionKey == "" {
		return kafka.Message{}, fmt.Errorf("%s event has no cart owner to key by", eventType)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(partitionKey),
		Value: payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(eventType)},
			{Key: headerContentType, Value: []byte("application/json")},
		},
		Time: p.nowFn(),
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
