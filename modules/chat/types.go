package chat

import domain "github.com/example/chatroom-demo/domain/chat"

// Service names registered by the chat module.
const (
	ServiceListRooms   = "list-rooms"
	ServiceGetMessages = "get-messages"
	ServiceRoomStats   = "room-stats"
)

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response from the list-rooms service.
type ListRoomsResponse struct {
	Rooms []string `json:"rooms"`
}

// GetMessagesRequest is the request for the get-messages service.
type GetMessagesRequest struct {
	Room string `json:"room"`
}

// GetMessagesResponse is the response from the get-messages service.
type GetMessagesResponse struct {
	Room     string           `json:"room"`
	Messages []domain.Message `json:"messages"`
}

// RoomStatsRequest is the request for the room-stats service.
type RoomStatsRequest struct{}

// RoomStatsResponse is the response from the room-stats service.
type RoomStatsResponse struct {
	Rooms []domain.Room `json:"rooms"`
}

// Config holds the chat module settings.
type Config struct {
	Rooms       []string
	MaxHistory  int
	StrictRooms bool
}
