// Package delivery provides the surfaces reminder alerts are shown on.
package delivery

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"assignment-planner/pkg/logger"
	"assignment-planner/pkg/reminders"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool, served to the same machine
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes alerts to every connected websocket client. It keeps the
// latest alert per tag, so a repeated alert for the same assignment
// replaces the earlier one, and replays that set to clients that connect
// later.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	latest  map[string]reminders.Message
	log     logger.Logger
}

// NewHub returns an empty hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		latest:  make(map[string]reminders.Message),
		log:     log,
	}
}

// Deliver records msg and broadcasts it. Clients too slow to keep up are dropped.
func (h *Hub) Deliver(msg reminders.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[msg.Tag] = msg
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warning("Dropping slow websocket client %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
	return nil
}

// Latest returns the current alert per tag, oldest first.
func (h *Hub) Latest() []reminders.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latestLocked()
}

func (h *Hub) latestLocked() []reminders.Message {
	out := make([]reminders.Message, 0, len(h.latest))
	for _, m := range h.latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Tag < out[j].Tag
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

// Dismiss forgets the alert with the given tag.
func (h *Hub) Dismiss(tag string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.latest, tag)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams alerts to it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warning("Websocket upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	for _, m := range h.latestLocked() {
		if data, err := json.Marshal(m); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("Websocket client connected: %s", conn.RemoteAddr())

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards inbound frames and unregisters the client on close.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
		c.conn.Close()
		h.log.Info("Websocket client disconnected: %s", c.conn.RemoteAddr())
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
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

var _ reminders.Delivery = (*Hub)(nil)
