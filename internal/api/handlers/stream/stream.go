package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Registry hands out per-connection event queues
type Registry interface {
	Register(userID string) *events.Client
	Unregister(client *events.Client)
}

// Handler upgrades to a websocket and streams the caller's events
type Handler struct {
	hub      Registry
	upgrader websocket.Upgrader
}

// NewHandler creates a stream handler. checkOrigin may be nil to allow same-origin only.
func NewHandler(hub Registry, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleStream serves GET /api/stream
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Printf("[STREAM] Upgrade failed for %s: %v", userID, err)
		return
	}

	client := h.hub.Register(userID)
	go h.readPump(conn, client)
	h.writePump(conn, client)
}

// readPump discards client messages and unregisters on disconnect
func (h *Handler) readPump(conn *websocket.Conn, client *events.Client) {
	defer h.hub.Unregister(client)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards queued events until the queue is closed
func (h *Handler) writePump(conn *websocket.Conn, client *events.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.hub.Unregister(client)
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
