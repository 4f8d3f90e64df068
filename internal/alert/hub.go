package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the frame pushed to subscribers
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Hub fans alert events out to the websocket connections of their owners.
// It implements Notifier for the websocket channel.
type Hub struct {
	logger  *logger.Logger
	clients map[string]map[*client]struct{} // user id → connections
	mu      sync.RWMutex
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:  log.WithField("module", "alert_hub"),
		clients: make(map[string]map[*client]struct{}),
	}
}

// ServeHTTP upgrades /ws/alerts?user_id=<uuid> and keeps the connection until the peer leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "user_id must be a UUID", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	c := &client{conn: conn}
	h.add(userID, c)
	defer func() {
		h.remove(userID, c)
		conn.Close()
	}()

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(c, done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Warn("WebSocket error")
			}
			return
		}
	}
}

func (h *Hub) pingLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}

	h.logger.WithFields(map[string]interface{}{
		"user_id":     userID,
		"connections": len(h.clients[userID]),
	}).Debug("WebSocket client connected")
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// Connections returns the number of open connections of userID
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify pushes event to every connection of the alert owner.
// An offline owner is not an error.
func (h *Hub) Notify(ctx context.Context, event contracts.AlertEvent) error {
	data, err := json.Marshal(Message{Type: "alert", Data: event})
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[event.Alert.UserID]))
	for c := range h.clients[event.Alert.UserID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).WithField("user_id", event.Alert.UserID).Warn("Failed to push alert")
		}
	}
	return nil
}
