package events

import (
	"context"
	"log/slog"
)

// RegisterActivityLogger subscribes a handler that writes finance events to
// the structured log.
func RegisterActivityLogger(bus *EventBus, logger *slog.Logger) {
	logActivity := func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "activity",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}

	bus.Subscribe(EventTypeRulesApplied, logActivity)
	bus.Subscribe(EventTypeUploadCompleted, logActivity)
}
