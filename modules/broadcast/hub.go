package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

const (
	defaultSendBuffer = 256
	defaultWriteWait  = 10 * time.Second
	defaultPingPeriod = 54 * time.Second
)

// Conn is the part of a WebSocket connection the hub writes to.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is a registered connection with its outbound queue.
type Client struct {
	ID   string
	conn Conn
	send chan []byte
	done chan struct{}

	// closing is set by Hub.Close under the hub lock. closed is closed once
	// Close has written the close frame and closed conn.
	closing bool
	closed  chan struct{}
}

// Hub owns every live connection and its single writer goroutine.
// Send never blocks: frames go onto a bounded per-client queue and are
// dropped when that queue is full.
type Hub struct {
	clients    map[string]*Client
	mu         sync.RWMutex
	bufferSize int
	writeWait  time.Duration
	pingPeriod time.Duration
	dropped    atomic.Int64
	closed     bool
	logger     types.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSendBuffer sets the per-client queue length.
func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithWriteWait sets the deadline for a single write.
func WithWriteWait(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

// WithPingPeriod sets how often idle connections are pinged.
func WithPingPeriod(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.pingPeriod = d
		}
	}
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		bufferSize: defaultSendBuffer,
		writeWait:  defaultWriteWait,
		pingPeriod: defaultPingPeriod,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a connection and starts its writer.
// It reports false if the hub is closed or the id is taken.
func (h *Hub) Register(id string, conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if _, exists := h.clients[id]; exists {
		return false
	}

	client := &Client{
		ID:   id,
		conn: conn,
		send:   make(chan []byte, h.bufferSize),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	h.clients[id] = client
	go h.writePump(client)

	h.logger.Debug("Client registered", "connectionID", id)
	return true
}

// Unregister removes a connection and waits for its writer to finish.
// Frames still queued are flushed first. If Close is shutting the connection
// down, Unregister also waits for that to complete, so the caller may release
// conn once it returns. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		if !client.closing {
			close(client.send)
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	<-client.done
	if client.closing {
		<-client.closed
	}
	h.logger.Debug("Client unregistered", "connectionID", id)
}

// Send queues a frame for a connection. It reports false if the connection is
// unknown or its queue is full.
func (h *Hub) Send(id string, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[id]
	if !ok || client.closing {
		return false
	}

	select {
	case client.send <- frame:
		return true
	default:
		h.dropped.Add(1)
		h.logger.Warn("Send queue full, dropping frame", "connectionID", id)
		return false
	}
}

// ClientCount returns the number of connected clients not being closed.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, client := range h.clients {
		if !client.closing {
			n++
		}
	}
	return n
}

// Dropped returns the number of frames dropped on full queues.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close flushes and stops every writer, tells clients the server is going
// away and closes their connections. Later registrations are refused.
// Clients stay registered until their owner calls Unregister.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var clients []*Client
	for _, client := range h.clients {
		if client.closing {
			continue
		}
		client.closing = true
		close(client.send)
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		<-client.done
		_ = client.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		_ = client.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = client.conn.Close()
		close(client.closed)
	}
	if len(clients) > 0 {
		h.logger.Info("Closed client connections", "count", len(clients))
	}
}

// writePump is the only goroutine writing to the client's connection.
func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		close(client.done)
	}()

	for {
		select {
		case frame, ok := <-client.send:
			if !ok {
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Warn("Write failed, closing connection", "connectionID", client.ID, "error", err)
				_ = client.conn.Close()
				h.drain(client)
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = client.conn.Close()
				h.drain(client)
				return
			}
		}
	}
}

// drain discards frames until the queue is closed so Send keeps returning
// promptly for a dead connection until it is unregistered.
func (h *Hub) drain(client *Client) {
	for range client.send {
	}
}
