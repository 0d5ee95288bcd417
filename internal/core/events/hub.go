package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

const clientBuffer = 64

// Relay forwards locally published events to other instances
type Relay interface {
	Forward(ctx context.Context, recipientID string, payload []byte) error
}

// Hub fans events out to the websocket clients of each user on this instance
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	relay   Relay
}

// Client is one live connection. Send is closed on Unregister.
type Client struct {
	UserID string
	Send   chan []byte
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[*Client]struct{}{},
	}
}

// SetRelay attaches a cross-instance relay. Call before serving traffic.
func (h *Hub) SetRelay(r Relay) {
	h.relay = r
}

// Register adds a connection for userID
func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

// Unregister removes the connection and closes its send channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userClients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := userClients[client]; !ok {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
}

// Connected returns the number of live connections for userID
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish delivers ev to userID's local connections and forwards it through the relay
func (h *Hub) Publish(ctx context.Context, recipientID string, ev Event) {
	if recipientID == "" {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENTS] Failed to encode %s event: %v", ev.Type, err)
		return
	}

	h.Deliver(recipientID, payload)

	if h.relay != nil {
		if err := h.relay.Forward(ctx, recipientID, payload); err != nil {
			log.Printf("[EVENTS] Relay forward failed for %s: %v", recipientID, err)
		}
	}
}

// Deliver writes payload to userID's local connections only.
// Clients whose buffer is full miss the message.
func (h *Hub) Deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			log.Printf("[EVENTS] Dropping message for slow client of %s", userID)
		}
	}
}
