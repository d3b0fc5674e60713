package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"research-assistant-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.APPROVAL_DECIDED", Subject(events.ApprovalDecided))
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	pub, err := NewPublisher(url)
	require.NoError(t, err)
	defer pub.Close()
	sub, err := NewSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	got := make(chan events.Event, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, sub.Subscribe(ctx, Subject(events.ApprovalEscalated), "test-"+uuid.NewString(), func(ctx context.Context, e events.Event) error {
		got <- e
		return nil
	}))

	require.NoError(t, pub.Publish(ctx, events.New(events.ApprovalEscalated, map[string]interface{}{"approval_id": "a9"}, time.Now())))

	select {
	case e := <-got:
		assert.Equal(t, events.ApprovalEscalated, e.EventType())
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}
