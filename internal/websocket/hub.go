// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/metrics"
)

// Envelope is the typed message frame pushed to dashboard clients.
// Type is one of "view" (a refreshed filtered view + summary) or "alert"
// (events newly classified Critical).
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of connected dashboard clients and fans refresh
// results out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run owns the client set; all membership changes and broadcasts go through
// this loop, so no lock is needed. Returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			metrics.WebsocketClients.Set(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			h.log.Info("dashboard client connected", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebsocketClients.Set(float64(len(h.clients)))
				h.log.Info("dashboard client disconnected", zap.String("client_id", client.ID))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow or gone; drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
					metrics.WebsocketClients.Set(float64(len(h.clients)))
					h.log.Warn("dropping stalled dashboard client", zap.String("client_id", client.ID))
				}
			}
		}
	}
}

// Register hands a new client to the hub loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// BroadcastView pushes a refreshed view to every connected client.
func (h *Hub) BroadcastView(payload interface{}) {
	h.send(Envelope{Type: "view", Payload: payload})
}

// BroadcastAlert pushes an alert notification to every connected client.
func (h *Hub) BroadcastAlert(payload interface{}) {
	h.send(Envelope{Type: "alert", Payload: payload})
}

func (h *Hub) send(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Error("marshalling broadcast envelope", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.log.Warn("broadcast channel full, dropping message", zap.String("type", env.Type))
	}
}
