// Package ws pushes room-change notifications to subscribed clients.
// The payload is deliberately thin: clients are told *that* a room
// changed and refetch the redacted game state over HTTP, so hidden
// information never leaks through the push channel.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// Event is the single message type the hub emits.
type Event struct {
	Type   string `json:"type"`
	Game   string `json:"game"`
	RoomID string `json:"roomId"`
}

// Hub fans events out to all connections subscribed to a topic.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*conn]struct{}

	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

// Publish sends an event to every subscriber of the topic. Slow
// consumers with a full buffer are skipped, never blocked on.
func (h *Hub) Publish(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.topics[topic] {
		select {
		case c.send <- data:
		default:
			h.log.Warn().Str("topic", topic).Msg("send buffer full, event dropped")
		}
	}
}

// Serve upgrades the request and keeps the connection subscribed to
// the topic until the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string) error {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &conn{sock: sock, send: make(chan []byte, sendBufferSize), done: make(chan struct{})}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*conn]struct{})
	}
	h.topics[topic][c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	c.readPump()

	h.mu.Lock()
	delete(h.topics[topic], c)
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
	h.mu.Unlock()
	return nil
}

type conn struct {
	sock *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}

// readPump discards client frames; the socket is one-way. It exists to
// notice the peer disconnecting and to answer pings.
func (c *conn) readPump() {
	defer c.close()
	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.sock.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
