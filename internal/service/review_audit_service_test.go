package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"research-assistant-be/pkg/events"
	pktNats "research-assistant-be/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditLine struct {
	level   string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []auditLine
}

func (l *recordingLogger) add(level, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, auditLine{level, message, details})
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.add("debug", message, details)
}

func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.add("info", message, details)
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.add("warn", message, details)
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.add("error", message, details)
}

func (l *recordingLogger) Sync() error { return nil }

type stubSubscriber struct {
	subject, durable string
	handler          pktNats.EventHandler
}

func (s *stubSubscriber) Subscribe(ctx context.Context, subject, durable string, handler pktNats.EventHandler) error {
	s.subject, s.durable, s.handler = subject, durable, handler
	return nil
}

func TestReviewAuditServiceWritesEvents(t *testing.T) {
	audit := &recordingLogger{}
	sub := &stubSubscriber{}
	svc := NewReviewAuditService(sub, audit, &recordingLogger{})

	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, "events.>", sub.subject)
	assert.Equal(t, "review-audit-worker", sub.durable)
	require.NotNil(t, sub.handler)

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, sub.handler(ctx, events.New(events.ApprovalEscalated, map[string]interface{}{"approval_id": "a1"}, at)))
	require.NoError(t, sub.handler(ctx, events.New(events.ApprovalDecided, map[string]interface{}{"approval_id": "a1"}, at)))
	require.NoError(t, sub.handler(ctx, events.New(events.SessionCycleCompleted, nil, at)))

	require.Len(t, audit.lines, 3)
	assert.Equal(t, "warn", audit.lines[0].level)
	assert.Equal(t, "a1", audit.lines[0].details["approval_id"])
	assert.Equal(t, "info", audit.lines[1].level)
	assert.Equal(t, "debug", audit.lines[2].level)
	assert.Equal(t, events.SessionCycleCompleted, audit.lines[2].details["event"])
}
