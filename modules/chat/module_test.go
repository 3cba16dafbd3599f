package chat

import (
	"context"
	"testing"

	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModule(t *testing.T) (*Module, *fakeSender) {
	t.Helper()
	sender := newFakeSender()
	m := NewModule(Config{Rooms: defaultRooms}, sender, &mockLogger{})
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })
	return m, sender
}

func TestModule_Name(t *testing.T) {
	m, _ := newTestModule(t)
	assert.Equal(t, "chat", m.Name())
	assert.Len(t, m.EmitEvents(), 3)
}

func TestModule_JoinSendDisconnect(t *testing.T) {
	m, sender := newTestModule(t)

	require.NoError(t, m.Join("c1", "General"))
	require.NoError(t, m.Join("c2", "General"))

	msg, err := m.Send("c1", domain.SendPayload{Room: "General", User: "alice", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, []string{"1"}, sender.receivedIDs(t, "c2"))

	m.Disconnect("c2")
	m.Disconnect("c2")
	assert.Equal(t, 1, m.Sessions().Count())

	assert.ErrorIs(t, m.Join("c1", "Nope"), domain.ErrUnknownRoom)
	assert.Equal(t, 0, m.Sessions().Count())
}

func TestModule_Rooms(t *testing.T) {
	m, _ := newTestModule(t)

	require.NoError(t, m.Join("c1", "Gaming"))
	_, err := m.Send("c1", domain.SendPayload{Room: "Gaming", User: "g", Text: "gg"})
	require.NoError(t, err)

	rooms := m.Rooms()
	require.Len(t, rooms, len(defaultRooms))
	for i, room := range rooms {
		assert.Equal(t, defaultRooms[i], room.Name)
		if room.Name == "Gaming" {
			assert.Equal(t, domain.Room{Name: "Gaming", Messages: 1, Members: 1}, room)
		}
	}
}

func TestModule_ServiceHandlers(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	list, err := m.handleListRooms(ctx, ListRoomsRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultRooms, list.Rooms)

	_, err = m.Registry().Append("General", "alice", "hi")
	require.NoError(t, err)

	got, err := m.handleGetMessages(ctx, GetMessagesRequest{Room: "General"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "General", got.Room)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Text)

	unknown, err := m.handleGetMessages(ctx, GetMessagesRequest{Room: "Nope"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, unknown.Messages)
	assert.Empty(t, unknown.Messages)

	stats, err := m.handleRoomStats(ctx, RoomStatsRequest{}, nil)
	require.NoError(t, err)
	assert.Len(t, stats.Rooms, len(defaultRooms))
}

func TestModule_Health(t *testing.T) {
	m, _ := newTestModule(t)
	require.NoError(t, m.Join("c1", "General"))

	health := m.Health(context.Background())
	assert.True(t, health.Healthy)
	assert.Equal(t, len(defaultRooms), health.Details["rooms"])
	assert.Equal(t, 1, health.Details["connections"])
}
