package http

import (
	"context"
	"log/slog"
)

const serviceName = "cart-service"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}

// requestFields are attached to every adapter log line; the owner is only
// known once the session or guest middleware has run.
func requestFields(ctx context.Context, operation, outcome string) []any {
	fields := []any{
		"operation", operation,
		"outcome", outcome,
		"request_id", requestIDFromContext(ctx),
	}
	if owner, ok := ownerFromContext(ctx); ok {
		fields = append(fields, "cart_owner", owner)
	}
	return fields
}

func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	fields := append(requestFields(ctx, operation, "failure"),
		"status_code", statusCode,
		"error_code", code,
		"message", message,
	)
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if statusCode >= 500 {
		httpLogger().ErrorContext(ctx, "cart request failed", fields...)
		return
	}
	httpLogger().WarnContext(ctx, "cart request rejected", fields...)
}

// logCartDegraded records a dependency failure the request survived.
func logCartDegraded(ctx context.Context, operation, message string, err error) {
	fields := append(requestFields(ctx, operation, "degraded"), "error", err.Error())
	httpLogger().WarnContext(ctx, message, fields...)
}
