// Package activity keeps running counters of chat traffic from chat events.
package activity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/chatroom-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// RoomActivity is the running tally for one room.
type RoomActivity struct {
	Room          string    `json:"room"`
	Messages      int64     `json:"messages"`
	Joins         int64     `json:"joins"`
	Leaves        int64     `json:"leaves"`
	Disconnects   int64     `json:"disconnects"`
	LastMessageAt time.Time `json:"last_message_at,omitempty"`
}

// Module consumes chat events and aggregates them per room.
type Module struct {
	mu     sync.RWMutex
	rooms  map[string]*RoomActivity
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new activity module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		rooms:  make(map[string]*RoomActivity),
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started")
	return nil
}

// Stop logs the final tallies.
func (m *Module) Stop(_ context.Context) error {
	for _, room := range m.Snapshot() {
		m.logger.Info("Room activity", "room", room.Room, "messages", room.Messages, "joins", room.Joins)
	}
	m.logger.Info("Activity module stopped")
	return nil
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"MessageSent", "UserJoined", "UserLeft"})
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.update(event.Room, func(a *RoomActivity) {
		a.Messages++
		if event.Timestamp.After(a.LastMessageAt) {
			a.LastMessageAt = event.Timestamp
		}
	})
	return nil
}

func (m *Module) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.update(event.Room, func(a *RoomActivity) { a.Joins++ })
	return nil
}

func (m *Module) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.update(event.Room, func(a *RoomActivity) {
		a.Leaves++
		if event.Disconnected {
			a.Disconnects++
		}
	})
	return nil
}

func (m *Module) update(room string, fn func(*RoomActivity)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.rooms[room]
	if !ok {
		a = &RoomActivity{Room: room}
		m.rooms[room] = a
	}
	fn(a)
}

// Snapshot returns a copy of every room tally sorted by room name.
func (m *Module) Snapshot() []RoomActivity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RoomActivity, 0, len(m.rooms))
	for _, a := range m.rooms {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	var total int64
	rooms := make(map[string]int64)
	for _, a := range m.Snapshot() {
		total += a.Messages
		rooms[a.Room] = a.Messages
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"total_messages": total,
			"rooms":          rooms,
		},
	}
}
