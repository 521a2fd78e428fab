package station

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket event names
const (
	EventSnapshot     = "snapshot"
	EventNewData      = "new-data"
	EventDeviceStatus = "device-status"
	EventConfig       = "config"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Event is one message pushed to live clients
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ClientObserver is notified as live clients come and go
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to connected WebSocket clients
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	observer ClientObserver
	logger   *slog.Logger
}

// NewHub creates a hub. observer may be nil.
func NewHub(observer ClientObserver, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		observer: observer,
		logger:   logger,
	}
}

// Serve upgrades the request and registers the client. initial is sent
// before any broadcast reaches the client.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial ...Event) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	for _, ev := range initial {
		if data, err := json.Marshal(ev); err == nil {
			c.send <- data
		}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.ClientConnected()
	}
	h.logger.Info("Client connected", "client_id", c.id, "remote", r.RemoteAddr)

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast sends events to every client. Clients that cannot keep up are
// dropped.
func (h *Hub) Broadcast(events ...Event) {
	payloads := make([][]byte, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("Failed to marshal event", "event", ev.Event, "error", err)
			continue
		}
		payloads = append(payloads, data)
	}

	h.mu.RLock()
	var slow []*client
clients:
	for c := range h.clients {
		for _, p := range payloads {
			select {
			case c.send <- p:
			default:
				slow = append(slow, c)
				continue clients
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow client", "client_id", c.id)
		h.remove(c)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.ClientDisconnected()
	}
	h.logger.Info("Client disconnected", "client_id", c.id)
}

// readPump discards inbound messages and detects disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
