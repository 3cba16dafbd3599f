package chat

import "time"

// Message represents a chat message stored in a room log.
// ID is the room-local sequence number rendered as a decimal string.
type Message struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Room is the public view of a configured room.
type Room struct {
	Name     string `json:"name"`
	Messages int    `json:"messages"`
	Members  int    `json:"members"`
}
