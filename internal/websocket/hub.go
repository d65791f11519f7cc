package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"stockwatch/internal/infrastructure"
	"stockwatch/pkg/contracts/domain"
)

// Message type constants pushed to browser clients.
const (
	TypeConnection = "connection"
	TypeAlert      = "alert"
	TypeQuote      = "quote"
	TypeRefresh    = "refresh"
	TypeError      = "error"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger *slog.Logger

	totalConnections int64
	messagesSent     int64

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Start launches the hub's main loop.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run processes register, unregister and broadcast events until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := context.Background()
			if client.traceID != "" {
				ctx = infrastructure.WithTraceID(ctx, client.traceID)
			}
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendWelcome(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.Info("client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) sendWelcome(client *Client) {
	msg := map[string]interface{}{
		"type": TypeConnection,
		"data": map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case client.send <- jsonData:
	default:
		h.logger.Warn("welcome message dropped, client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	failCount := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			h.mu.Lock()
			h.messagesSent++
			h.mu.Unlock()
		default:
			failCount++
			// Slow consumer, drop it rather than block the loop.
			h.mu.Lock()
			close(client.send)
			delete(h.clients, client)
			h.mu.Unlock()
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	if failCount > 0 {
		h.logger.Warn("some clients missed a broadcast",
			slog.Int("fail_count", failCount),
			slog.Int("client_count", len(clients)))
	}
}

// BroadcastAlert pushes a bound-crossing alert to all connected clients.
func (h *Hub) BroadcastAlert(event domain.AlertEvent) {
	h.broadcastJSON(map[string]interface{}{
		"type":      TypeAlert,
		"data":      event,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// BroadcastQuote pushes a fresh quote to all connected clients.
func (h *Hub) BroadcastQuote(quote domain.Quote) {
	h.broadcastJSON(map[string]interface{}{
		"type":      TypeQuote,
		"data":      quote,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// BroadcastRefresh tells clients that server-side data changed and the
// named components should be reloaded.
func (h *Hub) BroadcastRefresh(source string, components []string) {
	h.broadcastJSON(map[string]interface{}{
		"type": TypeRefresh,
		"data": map[string]interface{}{
			"source":     source,
			"components": components,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// BroadcastError pushes a structured error notification.
func (h *Hub) BroadcastError(code, message string) {
	h.broadcastJSON(map[string]interface{}{
		"type": TypeError,
		"data": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Hub) broadcastJSON(message map[string]interface{}) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", message["type"].(string)))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub and closes all client connections.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stats returns a snapshot of hub counters for the health endpoint.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
	}
}
