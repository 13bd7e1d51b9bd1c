package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"menu-lens-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "menu_progress_events"

// Hub fans progress frames out to every socket watching a session. A session
// can be watched from several devices at once, and sessions served by another
// instance are reached through Redis pub/sub.
type Hub struct {
	// Registered clients map: SessionID -> List of Clients (multi-device)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						// Remove from slice
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers a progress frame to every watcher of the session, locally and
// through Redis for watchers connected to other instances.
func (h *Hub) Send(sessionID string, frameType string, payload interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": frameType,
		"data": payload,
	})

	h.sendLocal(sessionID, data)

	if h.rdb != nil {
		envelope, _ := json.Marshal(map[string]interface{}{
			"session_id": sessionID,
			"message":    json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), clusterChannel, envelope)
	}
}

// HasWatchers reports whether any socket on this instance watches the session.
func (h *Hub) HasWatchers(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID]) > 0
}

func (h *Hub) sendLocal(sessionID string, data []byte) {
	h.mu.RLock()
	clients := h.clients[sessionID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"session_id": sessionID})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to one channel carrying
	// {session_id, message}. On arrival, deliver only if the session has
	// local watchers; instances without them just skip the frame.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			SessionID string          `json:"session_id"`
			Message   json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis frame parse error", map[string]interface{}{"error": err.Error()})
			continue
		}

		h.sendLocal(payload.SessionID, payload.Message)
	}
}
