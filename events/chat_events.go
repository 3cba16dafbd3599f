package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted after a message is appended to a room log.
type MessageSentEvent struct {
	Room         string    `json:"room"`
	MessageID    string    `json:"message_id"`
	ConnectionID string    `json:"connection_id"`
	User         string    `json:"user"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserJoinedEvent is emitted when a connection joins a configured room.
type UserJoinedEvent struct {
	Room         string    `json:"room"`
	ConnectionID string    `json:"connection_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a connection leaves a room, either by
// joining another one or by disconnecting.
type UserLeftEvent struct {
	Room         string    `json:"room"`
	ConnectionID string    `json:"connection_id"`
	Disconnected bool      `json:"disconnected"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"chat",
		"MessageSent",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"chat",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"chat",
		"UserLeft",
		"v1",
	)
)
