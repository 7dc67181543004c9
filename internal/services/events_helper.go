package services

import (
	"context"
	"log/slog"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/events"
)

// publishEvent is fire and forget; failures are logged only
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, data interface{}) {
	if publisher == nil {
		return
	}

	event, err := events.NewEvent(eventType, data)
	if err != nil {
		logger.Error("Failed to build event", "type", eventType, "error", err)
		return
	}

	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event", "type", eventType, "event_id", event.ID, "error", err)
	}
}
