package controllers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"transit_admin/internal/builder"
)

const writeWait = 5 * time.Second

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the dashboard is served from its own origin
	},
}

// SessionHub pushes build-session snapshots to the browsers watching them.
// Snapshots can reach the hub out of order because sessions report changes
// outside their lock; anything older than what was last sent is dropped.
type SessionHub struct {
	clients   map[string]map[*websocket.Conn]bool
	lastSent  map[string]uint64
	broadcast chan builder.Snapshot
	mu        sync.Mutex
}

// NewSessionHub creates a hub and starts its broadcast loop.
func NewSessionHub() *SessionHub {
	hub := &SessionHub{
		clients:   make(map[string]map[*websocket.Conn]bool),
		lastSent:  make(map[string]uint64),
		broadcast: make(chan builder.Snapshot, 256),
	}
	go hub.run()
	return hub
}

func (h *SessionHub) run() {
	for snap := range h.broadcast {
		h.mu.Lock()
		if len(h.clients[snap.SessionID]) == 0 || snap.Version <= h.lastSent[snap.SessionID] {
			h.mu.Unlock()
			continue
		}
		h.lastSent[snap.SessionID] = snap.Version
		for conn := range h.clients[snap.SessionID] {
			if err := writeSnapshot(conn, snap); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"session_id": snap.SessionID,
					"conn_ptr":   fmt.Sprintf("%p", conn),
				}).Warn("Failed to push snapshot, dropping client")
				delete(h.clients[snap.SessionID], conn)
				conn.Close()
			}
		}
		h.mu.Unlock()
	}
}

func writeSnapshot(conn *websocket.Conn, snap builder.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}

// Publish queues a snapshot for delivery. It never blocks the caller.
func (h *SessionHub) Publish(snap builder.Snapshot) {
	select {
	case h.broadcast <- snap:
	default:
		logrus.WithField("session_id", snap.SessionID).Warn("Snapshot broadcast channel full, dropping message")
	}
}

// Register adds a client and sends it the current state straight away.
func (h *SessionHub) Register(conn *websocket.Conn, current builder.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := writeSnapshot(conn, current); err != nil {
		return err
	}
	if _, ok := h.clients[current.SessionID]; !ok {
		h.clients[current.SessionID] = make(map[*websocket.Conn]bool)
	}
	h.clients[current.SessionID][conn] = true
	if current.Version > h.lastSent[current.SessionID] {
		h.lastSent[current.SessionID] = current.Version
	}
	logrus.WithFields(logrus.Fields{
		"session_id": current.SessionID,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	}).Info("Client registered with SessionHub")
	return nil
}

// Unregister removes a disconnected client.
func (h *SessionHub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[sessionID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, sessionID)
			delete(h.lastSent, sessionID)
		}
	}
}

// CloseSession disconnects every client of a discarded session.
func (h *SessionHub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients[sessionID] {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
			time.Now().Add(writeWait))
		conn.Close()
	}
	delete(h.clients, sessionID)
	delete(h.lastSent, sessionID)
}

// HandleSessionWebSocket streams snapshots of one build session.
// @Router /ws/sessions/{id} [get]
func HandleSessionWebSocket(sessions *builder.Registry, hub *SessionHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		session, ok := sessions.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
			return
		}
		defer conn.Close()

		if err := hub.Register(conn, session.Snapshot()); err != nil {
			logrus.WithError(err).WithField("session_id", id).Warn("Failed to send initial snapshot")
			return
		}
		defer hub.Unregister(id, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logrus.WithField("session_id", id).Info("Session WebSocket closed.")
				} else {
					logrus.WithError(err).WithField("session_id", id).Debug("Session WebSocket read ended.")
				}
				return
			}
			// clients only listen; anything they send is ignored
		}
	}
}
