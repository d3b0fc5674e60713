package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/serverutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func connect(t *testing.T, hub *Hub, userID, role string, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: hub, UserID: userID, Role: role, Send: make(chan []byte, buffer)}
	hub.register <- c
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for _, x := range hub.clients[userID] {
			if x == c {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	return c
}

func decode(t *testing.T, raw []byte) dto.ReviewNotification {
	t.Helper()
	var env struct {
		Type string                 `json:"type"`
		Data dto.ReviewNotification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "review", env.Type)
	return env.Data
}

func TestSendTargetsOneUser(t *testing.T) {
	hub := startHub(t)
	alice := connect(t, hub, "alice", serverutils.RoleResearcher, 4)
	bob := connect(t, hub, "bob", serverutils.RoleResearcher, 4)

	hub.Send("alice", dto.ReviewNotification{ApprovalId: "a1", Status: entity.ApprovalStatusApproved})

	require.Len(t, alice.Send, 1)
	assert.Equal(t, "a1", decode(t, <-alice.Send).ApprovalId)
	assert.Empty(t, bob.Send)
}

func TestBroadcastReachesReviewersOnly(t *testing.T) {
	hub := startHub(t)
	researcher := connect(t, hub, "r1", serverutils.RoleResearcher, 4)
	rev1 := connect(t, hub, "rev1", serverutils.RoleReviewer, 4)
	rev1b := connect(t, hub, "rev1", serverutils.RoleReviewer, 4)

	hub.Broadcast(dto.ReviewNotification{ApprovalId: "a2", Priority: entity.ApprovalPriorityUrgent})

	assert.Empty(t, researcher.Send)
	assert.Equal(t, entity.ApprovalPriorityUrgent, decode(t, <-rev1.Send).Priority)
	assert.Equal(t, entity.ApprovalPriorityUrgent, decode(t, <-rev1b.Send).Priority)
	assert.Equal(t, 3, hub.ConnectedClients())
}

func TestFullBufferDropsClient(t *testing.T) {
	hub := startHub(t)
	slow := connect(t, hub, "slow", serverutils.RoleReviewer, 1)

	hub.Broadcast(dto.ReviewNotification{ApprovalId: "first"})
	hub.Broadcast(dto.ReviewNotification{ApprovalId: "second"})

	assert.Equal(t, 0, hub.ConnectedClients())
	assert.Equal(t, "first", decode(t, <-slow.Send).ApprovalId)
	_, open := <-slow.Send
	assert.False(t, open)

	// a second drop of the same client is a no-op
	hub.drop(slow)
}
