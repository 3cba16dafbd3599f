package api

import (
	"time"

	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)

	// Room directory
	app.Get("/rooms", m.listRooms)
	app.Get("/rooms/:name/messages", m.getMessages)

	api := app.Group("/api/v1")
	api.Get("/rooms", m.roomStats)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket, websocket.Config{
		Origins: m.origins(),
	}))
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// listRooms handles GET /rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.chatAdapter.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(rooms)
}

// getMessages handles GET /rooms/:name/messages.
func (m *APIModule) getMessages(c *fiber.Ctx) error {
	messages, err := m.chatAdapter.GetMessages(c.UserContext(), c.Params("name"))
	if err != nil {
		m.logger.Error("Failed to get messages", "room", c.Params("name"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "history_failed",
			Message: "Failed to get messages",
		})
	}
	return c.JSON(messages)
}

// roomStats handles GET /api/v1/rooms.
func (m *APIModule) roomStats(c *fiber.Ctx) error {
	rooms, err := m.chatAdapter.RoomStats(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to get room stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get room stats",
		})
	}
	return c.JSON(RoomStatsResponse{Rooms: rooms})
}

// handleWebSocket serves one client connection until it goes away.
// Outbound frames go through the hub; this goroutine only reads.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connectionID := uuid.New().String()
	if !m.hub.Register(connectionID, c) {
		m.logger.Warn("WebSocket rejected, hub closed", "connectionID", connectionID)
		return
	}
	defer func() {
		m.sessions.Disconnect(connectionID)
		m.hub.Unregister(connectionID)
	}()

	m.logger.Info("WebSocket connected", "connectionID", connectionID, "remote", c.RemoteAddr().String())

	c.SetReadLimit(m.cfg.MaxMessageSize)
	_ = c.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(m.cfg.RateLimit), m.cfg.RateBurst)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("WebSocket read error", "connectionID", connectionID, "error", err)
			}
			break
		}
		_ = c.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
		m.handleFrame(connectionID, raw, limiter)
	}

	m.logger.Info("WebSocket disconnected", "connectionID", connectionID)
}

// handleFrame dispatches one inbound frame.
func (m *APIModule) handleFrame(connectionID string, raw []byte, limiter *rate.Limiter) {
	frame, err := domain.DecodeFrame(raw)
	if err != nil {
		m.sessions.SendError(connectionID, domain.ErrCodeBadRequest, err.Error(), "")
		return
	}

	switch frame.Type {
	case domain.FrameJoinRoom:
		var room string
		if err := frame.DecodeData(&room); err != nil {
			m.sessions.SendError(connectionID, domain.ErrCodeBadRequest, err.Error(), "")
			return
		}
		// Unknown rooms are answered by the chat module itself.
		_ = m.sessions.Join(connectionID, room)

	case domain.FrameSendMessage:
		var req domain.SendPayload
		if err := frame.DecodeData(&req); err != nil {
			m.sessions.SendError(connectionID, domain.ErrCodeBadRequest, err.Error(), "")
			return
		}
		if !limiter.Allow() {
			m.sessions.SendError(connectionID, domain.ErrCodeRateLimited, "rate limit exceeded, please slow down", req.Ref)
			return
		}
		_, _ = m.sessions.Send(connectionID, req)

	default:
		m.sessions.SendError(connectionID, domain.ErrCodeUnknownType, "unknown frame type: "+frame.Type, "")
	}
}
