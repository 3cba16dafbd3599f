package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/chatroom-demo/client"
	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/example/chatroom-demo/modules/activity"
	"github.com/example/chatroom-demo/modules/broadcast"
	"github.com/example/chatroom-demo/modules/chat"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAPI_FullApplication wires every module into a mono application with
// embedded NATS, so the room directory goes through the service container
// and chat events reach the activity module over the EventBus.
func TestAPI_FullApplication(t *testing.T) {
	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError), // Suppress logs in tests
	)
	require.NoError(t, err)
	logger := app.Logger()

	broadcastModule := broadcast.NewModule(logger.WithModule("broadcast"))
	chatModule := chat.NewModule(chat.Config{Rooms: defaultRooms}, broadcastModule.GetHub(), logger.WithModule("chat"))
	activityModule := activity.NewModule(logger.WithModule("activity"))
	apiModule := NewModule(Config{Addr: "127.0.0.1:0"}, logger.WithModule("api"))
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetSessions(chatModule)

	require.NoError(t, app.Register(broadcastModule))
	require.NoError(t, app.Register(chatModule))
	require.NoError(t, app.Register(activityModule))
	require.NoError(t, app.Register(apiModule))

	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})
	_, isAdapter := apiModule.chatAdapter.(*chat.ChatAdapter)
	require.True(t, isAdapter, "room directory is served through the service container")

	alice, err := client.New(client.Config{BaseURL: "http://" + apiModule.Addr(), Username: "alice"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = alice.Leave() })

	rooms, err := alice.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultRooms, rooms)

	join(t, alice, "General")
	_, err = alice.Send("hello over the bus")
	require.NoError(t, err)
	got := waitFor(t, alice, client.EventMessage)
	assert.Equal(t, "hello over the bus", got.Message.Text)

	resp, err := apiModule.app.Test(httptest.NewRequest(fiber.MethodGet, "/rooms/General/messages", nil))
	require.NoError(t, err)
	var history []domain.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, got.Message, history[0])

	require.Eventually(t, func() bool {
		for _, a := range activityModule.Snapshot() {
			if a.Room == "General" {
				return a.Messages == 1 && a.Joins == 1
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}
