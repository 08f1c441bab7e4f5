package events

import (
	"context"
	"encoding/json"
	"log/slog"
)

// cartEventSummary is the part of a cart event worth a log line.
type cartEventSummary struct {
	EventID     string  `json:"event_id"`
	Reason      string  `json:"reason"`
	ItemCount   int     `json:"item_count"`
	VendorCount int     `json:"vendor_count"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

// LoggingPublisher stands in for a broker: each cart event becomes one
// structured log line.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{logger: logger.With("module", "events.publisher", "layer", "adapter")}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	fields := []any{
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"cart_owner", partitionKey,
		"payload_bytes", len(payload),
	}
	var summary cartEventSummary
	if err := json.Unmarshal(payload, &summary); err == nil && summary.EventID != "" {
		fields = append(fields,
			"event_id", summary.EventID,
			"reason", summary.Reason,
			"item_count", summary.ItemCount,
			"vendor_count", summary.VendorCount,
			"total", summary.Total,
			"currency", summary.Currency,
		)
	}
	p.logger.InfoContext(ctx, "cart event published", fields...)
	return nil
}
