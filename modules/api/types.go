package api

import domain "github.com/example/chatroom-demo/domain/chat"

// RoomStatsResponse is the API response for the room overview.
type RoomStatsResponse struct {
	Rooms []domain.Room `json:"rooms"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
