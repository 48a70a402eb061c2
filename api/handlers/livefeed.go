package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/models"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// FeedHub fans new incidents out to every connected live-feed client.
// Disconnected clients are dropped on the first failed write.
type FeedHub struct {
	clients map[*websocket.Conn]struct{}
	mutex   sync.Mutex
}

// NewFeedHub returns an empty hub
func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// HandleIncidentFeed upgrades the connection and keeps it registered until
// the client goes away
func (h *FeedHub) HandleIncidentFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = struct{}{}
	h.mutex.Unlock()
	zap.S().Debugw("client connected to incident feed", "remote", conn.RemoteAddr())

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, conn)
		h.mutex.Unlock()
		zap.S().Debugw("client disconnected from incident feed", "remote", conn.RemoteAddr())
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			break
		}
	}
}

// BroadcastIncident pushes a new incident to all connected clients
func (h *FeedHub) BroadcastIncident(incident models.Incident) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		err := conn.WriteJSON(map[string]interface{}{
			"event": "new_incident",
			"data":  incident,
		})
		if err != nil {
			zap.S().Warnw("failed to send incident to feed client", "remote", conn.RemoteAddr(), "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports how many feed clients are currently connected
func (h *FeedHub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
