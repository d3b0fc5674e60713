package service

import (
	"context"
	"strings"

	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/pkg/events"
	pktNats "research-assistant-be/pkg/nats"
)

// EventSubscriber is the durable consumer side of the event bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// ReviewAuditService appends every research event seen on the bus to the review
// audit log, so decisions from all instances end up in one trail.
type ReviewAuditService struct {
	subscriber EventSubscriber
	audit      logger.ILogger
	logger     logger.ILogger
}

func NewReviewAuditService(sub EventSubscriber, audit logger.ILogger, log logger.ILogger) *ReviewAuditService {
	return &ReviewAuditService{
		subscriber: sub,
		audit:      audit,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *ReviewAuditService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", "review-audit-worker", s.HandleEvent); err != nil {
		s.logger.Error("REVIEW_AUDIT", "Failed to start audit subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("REVIEW_AUDIT", "Audit subscriber started", nil)
	return nil
}

func (s *ReviewAuditService) HandleEvent(ctx context.Context, event events.Event) error {
	eventType := strings.TrimPrefix(event.EventType(), pktNats.SubjectPrefix)

	details := map[string]interface{}{
		"event":       eventType,
		"occurred_at": event.Timestamp(),
	}
	for k, v := range event.Payload() {
		details[k] = v
	}

	switch eventType {
	case events.ApprovalEscalated:
		s.audit.Warn("BUS", "Approval escalated", details)
	case events.ApprovalDecided:
		s.audit.Info("BUS", "Approval decided", details)
	case events.ApprovalRequested:
		s.audit.Info("BUS", "Approval requested", details)
	default:
		s.audit.Debug("BUS", "Research event", details)
	}
	return nil
}
