package activity

import (
	"context"
	"testing"
	"time"

	"github.com/example/chatroom-demo/events"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

func TestModule_Handlers(t *testing.T) {
	ctx := context.Background()
	m := NewModule(&mockLogger{})
	assert.Equal(t, "activity", m.Name())

	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{Room: "General", ConnectionID: "c1"}, nil))
	require.NoError(t, m.handleMessageSent(ctx, events.MessageSentEvent{Room: "General", MessageID: "1", Timestamp: t2}, nil))
	require.NoError(t, m.handleMessageSent(ctx, events.MessageSentEvent{Room: "General", MessageID: "2", Timestamp: t1}, nil))
	require.NoError(t, m.handleUserLeft(ctx, events.UserLeftEvent{Room: "General", ConnectionID: "c1"}, nil))
	require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{Room: "Random", ConnectionID: "c1"}, nil))
	require.NoError(t, m.handleUserLeft(ctx, events.UserLeftEvent{Room: "Random", ConnectionID: "c1", Disconnected: true}, nil))

	snapshot := m.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, RoomActivity{Room: "General", Messages: 2, Joins: 1, Leaves: 1, LastMessageAt: t2}, snapshot[0])
	assert.Equal(t, RoomActivity{Room: "Random", Joins: 1, Leaves: 1, Disconnects: 1}, snapshot[1])
}

func TestModule_Health(t *testing.T) {
	ctx := context.Background()
	m := NewModule(&mockLogger{})
	require.NoError(t, m.Start(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, m.handleMessageSent(ctx, events.MessageSentEvent{Room: "Gaming"}, nil))
	}

	health := m.Health(ctx)
	assert.True(t, health.Healthy)
	assert.Equal(t, int64(3), health.Details["total_messages"])
	assert.Equal(t, map[string]int64{"Gaming": 3}, health.Details["rooms"])
	require.NoError(t, m.Stop(ctx))
}

func TestModule_HealthRoomNamedLikeTotal(t *testing.T) {
	ctx := context.Background()
	m := NewModule(&mockLogger{})

	require.NoError(t, m.handleMessageSent(ctx, events.MessageSentEvent{Room: "total_messages"}, nil))
	require.NoError(t, m.handleMessageSent(ctx, events.MessageSentEvent{Room: "General"}, nil))

	health := m.Health(ctx)
	assert.Equal(t, int64(2), health.Details["total_messages"])
	assert.Equal(t, map[string]int64{"total_messages": 1, "General": 1}, health.Details["rooms"])
}
