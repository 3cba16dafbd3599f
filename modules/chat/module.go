package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/example/chatroom-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module implements the chat room module with EventBus integration.
type Module struct {
	registry    *Registry
	sessions    *Sessions
	broadcaster *Broadcaster
	eventBus    mono.EventBus
	logger      types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new chat module delivering frames through sender.
func NewModule(cfg Config, sender Sender, logger types.Logger) *Module {
	registry := NewRegistry(cfg.Rooms, WithMaxHistory(cfg.MaxHistory))
	sessions := NewSessions(registry)
	return &Module{
		registry:    registry,
		sessions:    sessions,
		broadcaster: NewBroadcaster(registry, sessions, sender, cfg.StrictRooms, logger),
		logger:      logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetMessages,
		json.Unmarshal,
		json.Marshal,
		m.handleGetMessages,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetMessages, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRoomStats,
		json.Unmarshal,
		json.Marshal,
		m.handleRoomStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomStats, err)
	}

	m.logger.Info("Registered services", "services", []string{ServiceListRooms, ServiceGetMessages, ServiceRoomStats})
	return nil
}

func (m *Module) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.registry.RoomNames()}, nil
}

func (m *Module) handleGetMessages(_ context.Context, req GetMessagesRequest, _ *mono.Msg) (GetMessagesResponse, error) {
	return GetMessagesResponse{Room: req.Room, Messages: m.registry.Messages(req.Room)}, nil
}

func (m *Module) handleRoomStats(_ context.Context, _ RoomStatsRequest, _ *mono.Msg) (RoomStatsResponse, error) {
	return RoomStatsResponse{Rooms: m.Rooms()}, nil
}

// Start logs the configured rooms.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Chat module started", "rooms", m.registry.RoomNames())
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Chat module stopped", "connections", m.sessions.Count())
	return nil
}

// Health reports room and membership counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":       len(m.registry.RoomNames()),
			"connections": m.sessions.Count(),
		},
	}
}

// Registry returns the room registry.
func (m *Module) Registry() *Registry {
	return m.registry
}

// Sessions returns the connection session table.
func (m *Module) Sessions() *Sessions {
	return m.sessions
}

// Rooms returns a summary of every configured room.
func (m *Module) Rooms() []domain.Room {
	names := m.registry.RoomNames()
	rooms := make([]domain.Room, 0, len(names))
	for _, name := range names {
		rooms = append(rooms, domain.Room{
			Name:     name,
			Messages: m.registry.Len(name),
			Members:  m.sessions.RoomCount(name),
		})
	}
	return rooms
}

// Join moves a connection into room and sends it the catch-up.
func (m *Module) Join(connectionID, room string) error {
	result, err := m.broadcaster.OnClientJoin(connectionID, room)
	now := time.Now()

	if result.Previous != "" && result.Previous != room {
		m.publishLeft(connectionID, result.Previous, false, now)
	}
	if err != nil {
		m.logger.Info("Join to unknown room", "connectionID", connectionID, "room", room)
		return err
	}
	if result.Previous != room && m.eventBus != nil {
		m.publish(events.UserJoinedV1.Publish(m.eventBus, events.UserJoinedEvent{
			Room:         room,
			ConnectionID: connectionID,
			Timestamp:    now,
		}, nil), "UserJoined")
	}

	m.logger.Info("User joined room", "connectionID", connectionID, "room", room)
	return nil
}

// Send appends a message and broadcasts it to the room.
func (m *Module) Send(connectionID string, req domain.SendPayload) (domain.Message, error) {
	msg, err := m.broadcaster.OnClientSend(connectionID, req)
	if err != nil {
		m.logger.Debug("Message dropped", "connectionID", connectionID, "room", req.Room, "error", err)
		return domain.Message{}, err
	}
	if m.eventBus == nil {
		return msg, nil
	}

	m.publish(events.MessageSentV1.Publish(m.eventBus, events.MessageSentEvent{
		Room:         req.Room,
		MessageID:    msg.ID,
		ConnectionID: connectionID,
		User:         msg.User,
		Timestamp:    msg.Timestamp,
	}, nil), "MessageSent")
	return msg, nil
}

// Disconnect removes a connection from its room, if any.
func (m *Module) Disconnect(connectionID string) {
	room, ok := m.broadcaster.OnClientDisconnect(connectionID)
	if !ok {
		return
	}
	m.publishLeft(connectionID, room, true, time.Now())
	m.logger.Info("User left room", "connectionID", connectionID, "room", room)
}

// SendError delivers an error frame to a single connection.
func (m *Module) SendError(connectionID, code, message, ref string) {
	m.broadcaster.SendError(connectionID, code, message, ref)
}

func (m *Module) publishLeft(connectionID, room string, disconnected bool, at time.Time) {
	if m.eventBus == nil {
		return
	}
	m.publish(events.UserLeftV1.Publish(m.eventBus, events.UserLeftEvent{
		Room:         room,
		ConnectionID: connectionID,
		Disconnected: disconnected,
		Timestamp:    at,
	}, nil), "UserLeft")
}

func (m *Module) publish(err error, name string) {
	if err != nil {
		m.logger.Warn("Failed to publish event", "event", name, "error", err)
	}
}
