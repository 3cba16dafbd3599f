package chat

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort defines the read side of the chat module used by other modules.
type ChatPort interface {
	ListRooms(ctx context.Context) ([]string, error)
	GetMessages(ctx context.Context, room string) ([]domain.Message, error)
	RoomStats(ctx context.Context) ([]domain.Room, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// ListRooms returns the configured room names.
func (a *ChatAdapter) ListRooms(ctx context.Context) ([]string, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	if resp.Rooms == nil {
		return []string{}, nil
	}
	return resp.Rooms, nil
}

// GetMessages returns the log of a room, empty for an unknown room.
func (a *ChatAdapter) GetMessages(ctx context.Context, room string) ([]domain.Message, error) {
	req := GetMessagesRequest{Room: room}
	var resp GetMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetMessages,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	if resp.Messages == nil {
		return []domain.Message{}, nil
	}
	return resp.Messages, nil
}

// RoomStats returns message and member counts for every room.
func (a *ChatAdapter) RoomStats(ctx context.Context) ([]domain.Room, error) {
	req := RoomStatsRequest{}
	var resp RoomStatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room stats: %w", err)
	}
	return resp.Rooms, nil
}
