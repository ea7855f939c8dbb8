package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	// The display is served to operators on the local network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub keeps the connected websocket clients and fans messages out to
// them. Each client has its own writer so a stalled socket never blocks a
// broadcast.
type EventHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	logger  *zap.SugaredLogger
}

// NewEventHub creates an empty hub.
func NewEventHub(logger *zap.SugaredLogger) *EventHub {
	return &EventHub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

// Serve upgrades the request and blocks until the client disconnects or the
// hub is closed.
func (h *EventHub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "websocket upgrade")
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	go c.writePump(h.logger)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("websocket read failed", "error", err)
			}
			return nil
		}
	}
}

func (c *wsClient) writePump(logger *zap.SugaredLogger) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugw("websocket write failed", "error", err)
			c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
	c.conn.Close()
}

func (h *EventHub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.logger.Debugw("websocket client connected", "clients", len(h.clients))
}

func (h *EventHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Debugw("websocket client disconnected", "clients", len(h.clients))
}

// Broadcast queues msg for every client. Clients whose queue is full miss it.
func (h *EventHub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debugw("websocket client queue full, dropping message")
		}
	}
}

// Len returns the number of connected clients.
func (h *EventHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
