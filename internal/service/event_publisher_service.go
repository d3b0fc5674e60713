package service

import (
	"context"

	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/pkg/events"
)

type eventPublisher struct {
	bus    events.Publisher
	logger logger.ILogger
}

// NewEventPublisher wraps the external bus. With no bus configured events are
// logged and dropped so the pipeline keeps running without NATS.
func NewEventPublisher(bus events.Publisher, log logger.ILogger) events.Publisher {
	return &eventPublisher{
		bus:    bus,
		logger: log,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event events.Event) error {
	if p.bus == nil {
		p.logger.Debug("EVENTS", "No event bus configured, dropping event", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}
	if err := p.bus.Publish(ctx, event); err != nil {
		p.logger.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return err
	}
	return nil
}
