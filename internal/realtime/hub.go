// Package realtime streams intervention activity to WebSocket subscribers.
//
// The dashboard subscribes instead of polling: each recorded intervention
// is broadcast to every connected client as it happens.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eduriesgo/retencion/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Allow non-browser clients
		}
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// EventIntervention is the only event type currently streamed.
const EventIntervention = "intervention"

// Event is a message pushed to subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// MaxClients is the maximum number of concurrent WebSocket connections.
const MaxClients = 1000

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub manages all WebSocket connections.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
	done       chan struct{} // closed when Run exits; prevents upgrade race
}

// NewHub creates a WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("realtime hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(0)
			h.logger.Info("realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= MaxClients {
				h.mu.Unlock()
				close(client.send)
				continue
			}
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(count))

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode event", "error", err)
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer: drop the event rather than block the hub
				}
			}
			h.mu.RUnlock()
		}
	}
}

// InterventionRecorded broadcasts a newly recorded intervention.
// Non-blocking: if the hub is stopped or saturated the event is dropped.
func (h *Hub) InterventionRecorded(entry any) {
	event := &Event{
		Type:      EventIntervention,
		Timestamp: time.Now().UTC(),
		Data:      entry,
	}
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		// Broadcast buffer full; the feed is best-effort
	}
}

// HandleWebSocket upgrades an HTTP request to a WebSocket subscription.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "service shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 64)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection until the client disconnects.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes events and pings until the send channel closes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
