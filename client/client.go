// Package client is a Go client for the chat server. It mirrors what the
// browser client does: discover rooms, join one, send messages and keep a
// local copy of the room's conversation.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	nanoid "github.com/jaevor/go-nanoid"
)

// ErrNotJoined is returned by Send when the client is not in a room.
var ErrNotJoined = errors.New("not joined to a room")

const (
	defaultHTTPTimeout = 5 * time.Second
	eventBuffer        = 256
)

// EventType identifies what an Event carries.
type EventType int

const (
	EventCatchUp EventType = iota + 1
	EventMessage
	EventAck
	EventError
	EventClosed
)

// Event is a change observed on the connection.
type Event struct {
	Type     EventType
	Room     string
	Messages []domain.Message
	Message  domain.Message
	Ack      domain.AckPayload
	Error    domain.ErrorPayload
	Err      error
}

// Config holds the client settings.
type Config struct {
	// BaseURL is the server's HTTP address, e.g. http://localhost:3001.
	BaseURL  string
	Username string
	Origin   string
	Dialer   *websocket.Dialer
	Timeout  time.Duration
}

// Client is a single chat participant.
type Client struct {
	cfg    Config
	newRef func() string

	writeMu sync.Mutex
	mu      sync.RWMutex
	conn    *websocket.Conn
	room    string
	history []domain.Message

	events chan Event
}

// New creates a client. No connection is made until Join.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	newRef, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("client: failed to create ref generator: %w", err)
	}

	return &Client{
		cfg:     cfg,
		newRef:  newRef,
		history: []domain.Message{},
		events:  make(chan Event, eventBuffer),
	}, nil
}

// ListRooms fetches the room directory. The request is abandoned when ctx
// is done.
func (c *Client) ListRooms(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		d := time.Until(deadline)
		if d <= 0 {
			return nil, context.DeadlineExceeded
		}
		if d < timeout {
			timeout = d
		}
	}

	type result struct {
		rooms []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		var rooms []string
		code, _, errs := fiber.Get(c.cfg.BaseURL + "/rooms").Timeout(timeout).Struct(&rooms)
		switch {
		case len(errs) > 0:
			done <- result{err: fmt.Errorf("failed to list rooms: %w", errors.Join(errs...))}
		case code != fiber.StatusOK:
			done <- result{err: fmt.Errorf("failed to list rooms: status %d", code)}
		default:
			done <- result{rooms: rooms}
		}
	}()

	select {
	case res := <-done:
		return res.rooms, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Join connects if needed and asks to join room. The local conversation is
// replaced once the server's catch-up arrives.
func (c *Client) Join(ctx context.Context, room string) error {
	if err := c.connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.room = room
	c.mu.Unlock()

	return c.write(domain.FrameJoinRoom, room)
}

// Send posts text to the current room as the configured user and returns the
// ref the server echoes in an ack or error.
func (c *Client) Send(text string) (string, error) {
	c.mu.RLock()
	room := c.room
	c.mu.RUnlock()
	if room == "" {
		return "", ErrNotJoined
	}

	ref := c.newRef()
	err := c.write(domain.FrameSendMessage, domain.SendPayload{
		Room: room,
		User: c.cfg.Username,
		Text: text,
		Ref:  ref,
	})
	return ref, err
}

// Leave disconnects from the server and forgets the current room.
func (c *Client) Leave() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.room = ""
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return conn.Close()
}

// Room returns the room the client last asked to join.
func (c *Client) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

// Username returns the configured display name.
func (c *Client) Username() string {
	return c.cfg.Username
}

// Messages returns a copy of the local conversation.
func (c *Client) Messages() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Events returns the stream of connection events. Events are dropped if the
// stream is not drained.
func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	wsURL, err := websocketURL(c.cfg.BaseURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.cfg.Origin != "" {
		header.Set("Origin", c.cfg.Origin)
	}

	conn, _, err := c.cfg.Dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	c.conn = conn
	go c.readLoop(conn)
	return nil
}

func (c *Client) write(frameType string, data any) error {
	raw, err := domain.EncodeFrame(frameType, data)
	if err != nil {
		return err
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotJoined
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, raw)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.emit(Event{Type: EventClosed, Err: err})
			return
		}

		frame, err := domain.DecodeFrame(raw)
		if err != nil {
			continue
		}
		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame domain.Frame) {
	switch frame.Type {
	case domain.FrameInitialMessages:
		var messages []domain.Message
		if err := frame.DecodeData(&messages); err != nil {
			return
		}
		if messages == nil {
			messages = []domain.Message{}
		}
		c.mu.Lock()
		c.history = messages
		room := c.room
		c.mu.Unlock()
		c.emit(Event{Type: EventCatchUp, Room: room, Messages: messages})

	case domain.FrameReceiveMessage:
		var msg domain.Message
		if err := frame.DecodeData(&msg); err != nil {
			return
		}
		c.mu.Lock()
		c.history = append(c.history, msg)
		room := c.room
		c.mu.Unlock()
		c.emit(Event{Type: EventMessage, Room: room, Message: msg})

	case domain.FrameMessageAck:
		var ack domain.AckPayload
		if err := frame.DecodeData(&ack); err != nil {
			return
		}
		c.emit(Event{Type: EventAck, Room: ack.Room, Ack: ack})

	case domain.FrameError:
		var payload domain.ErrorPayload
		if err := frame.DecodeData(&payload); err != nil {
			return
		}
		c.emit(Event{Type: EventError, Error: payload})
	}
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid base url %q: unsupported scheme", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
