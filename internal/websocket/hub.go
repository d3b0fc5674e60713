package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/serverutils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "review_events"

// broadcastTarget addresses every connected reviewer instead of a single user.
const broadcastTarget = "*"

// clusterMessage is what instances exchange over Redis pub/sub.
type clusterMessage struct {
	Origin  string          `json:"origin"`
	Target  string          `json:"target"`
	Message json.RawMessage `json:"message"`
}

// Hub fans review notifications out to connected researchers and reviewers.
// With Redis configured, deliveries are mirrored to the other instances.
type Hub struct {
	// UserID -> connections (multi-device)
	clients map[string][]*Client

	register chan *Client
	done     chan struct{}

	mu sync.RWMutex

	rdb        redis.UniversalClient
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb redis.UniversalClient, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID, "role": client.Role})

		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ConnectedClients counts live connections on this instance.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Send delivers a notification to every connection of one user.
func (h *Hub) Send(userID string, n dto.ReviewNotification) {
	h.publish(userID, encode(n))
}

// Broadcast delivers a notification to every connected reviewer.
func (h *Hub) Broadcast(n dto.ReviewNotification) {
	h.publish(broadcastTarget, encode(n))
}

func encode(n dto.ReviewNotification) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "review",
		"data": n,
	})
	return data
}

func (h *Hub) publish(target string, data []byte) {
	h.deliverLocal(target, data)

	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, Target: target, Message: data})
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to mirror notification to cluster", map[string]interface{}{"error": err.Error()})
	}
}

// deliverLocal sends under the read lock so drop cannot close a channel mid-send.
func (h *Hub) deliverLocal(target string, data []byte) {
	var stale []*Client
	offer := func(c *Client) {
		select {
		case c.Send <- data:
		default:
			stale = append(stale, c)
		}
	}

	h.mu.RLock()
	if target == broadcastTarget {
		for _, clients := range h.clients {
			for _, c := range clients {
				if c.Role == serverutils.RoleReviewer {
					offer(c)
				}
			}
		}
	} else {
		for _, c := range h.clients[target] {
			offer(c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"user_id": c.UserID})
		h.drop(c)
	}
}

// drop removes a client once; its Send channel is closed by whoever removes it.
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.clients[client.UserID]
	for i, c := range clients {
		if c != client {
			continue
		}
		h.clients[client.UserID] = append(clients[:i:i], clients[i+1:]...)
		close(client.Send)
		break
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(payload.Target, payload.Message)
		}
	}
}
