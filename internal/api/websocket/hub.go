package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages from clients
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(ctx context.Context, logger *zap.Logger) *Hub {
	hubCtx, cancel := context.WithCancel(ctx)
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		ctx:        hubCtx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client buffer full, close connection
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close all client connections
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// send marshals and queues an envelope. Broadcasts are best-effort: a
// stopped hub or marshal failure is logged, never surfaced to the caller.
func (h *Hub) send(msg models.WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("websocket marshal failed", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	}
}

// BroadcastAgentUpdate broadcasts an agent lifecycle change to all clients
func (h *Hub) BroadcastAgentUpdate(event string, agent *models.Agent) {
	h.send(models.WebSocketMessage{
		Type:      "agent_update",
		Event:     event,
		Payload:   agent,
		Timestamp: time.Now(),
	})
}

// BroadcastRemediationUpdate broadcasts a remediation transition to all clients
func (h *Hub) BroadcastRemediationUpdate(event string, action *models.RemediationAction) {
	h.send(models.WebSocketMessage{
		Type:      "remediation_update",
		Event:     event,
		Payload:   action,
		Timestamp: time.Now(),
	})
}

// BroadcastAlert broadcasts a newly raised alert to all clients
func (h *Hub) BroadcastAlert(alert *models.Alert) {
	h.send(models.WebSocketMessage{
		Type:      "alert",
		Event:     "created",
		Payload:   alert,
		Timestamp: time.Now(),
	})
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
