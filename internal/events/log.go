package events

import (
	"context"
	"encoding/json"
	"log/slog"
)

// LogPublisher writes events to the structured log. It is the default sink
// when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher builds a log-backed sink.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event at info level.
func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "event published",
		"event_type", event.Type,
		"key", event.Key,
		"payload", string(payload),
	)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
