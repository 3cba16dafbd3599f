package chat

import (
	"errors"
	"fmt"

	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
)

// Sender delivers an encoded frame to a single connection.
// Send must not block; it reports false when the frame was not queued.
type Sender interface {
	Send(connectionID string, frame []byte) bool
}

// JoinResult describes the membership change made by a join.
type JoinResult struct {
	Previous string
	Room     string
	Joined   bool
}

// Broadcaster turns client actions into registry and session updates and
// the frames they produce.
type Broadcaster struct {
	registry *Registry
	sessions *Sessions
	sender   Sender
	strict   bool
	logger   types.Logger
}

// NewBroadcaster wires a broadcaster over the given registry and sessions.
// With strict set, unknown rooms are answered with error frames and accepted
// sends are acknowledged to the sender.
func NewBroadcaster(registry *Registry, sessions *Sessions, sender Sender, strict bool, logger types.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		sessions: sessions,
		sender:   sender,
		strict:   strict,
		logger:   logger,
	}
}

// OnClientJoin moves the connection into room and sends it the room's log.
// The snapshot and the membership change happen under the room lock, so each
// message reaches the connection exactly once: in the catch-up or as a
// broadcast.
func (b *Broadcaster) OnClientJoin(connectionID, room string) (JoinResult, error) {
	result := JoinResult{Room: room}
	var joinErr error

	known := b.registry.SnapshotFunc(room, func(messages []domain.Message) {
		result.Previous, joinErr = b.sessions.Join(connectionID, room)
		if joinErr != nil {
			return
		}
		result.Joined = true
		b.send(connectionID, domain.FrameInitialMessages, messages)
	})
	if known {
		return result, joinErr
	}

	// Unknown room: the previous membership is still dropped.
	result.Previous, joinErr = b.sessions.Join(connectionID, room)
	if b.strict {
		b.sendError(connectionID, domain.ErrCodeUnknownRoom, fmt.Sprintf("room %q does not exist", room), "")
	} else {
		b.send(connectionID, domain.FrameInitialMessages, []domain.Message{})
	}
	return result, joinErr
}

// OnClientSend appends a message to the room and fans it out to every member
// of the room, the sender included. All members receive the same encoded
// frame, and fan-out happens under the room lock so delivery order matches
// append order for every member.
func (b *Broadcaster) OnClientSend(connectionID string, req domain.SendPayload) (domain.Message, error) {
	var fanout int
	msg, err := b.registry.AppendFunc(req.Room, req.User, req.Text, func(msg domain.Message) {
		frame, err := domain.EncodeFrame(domain.FrameReceiveMessage, msg)
		if err != nil {
			b.logger.Error("Failed to encode message frame", "room", req.Room, "error", err)
			return
		}
		for _, member := range b.sessions.MembersOf(req.Room) {
			if b.sender.Send(member, frame) {
				fanout++
			}
		}
		if b.strict {
			b.send(connectionID, domain.FrameMessageAck, domain.AckPayload{Ref: req.Ref, ID: msg.ID, Room: req.Room})
		}
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRoom) && b.strict {
			b.sendError(connectionID, domain.ErrCodeUnknownRoom, fmt.Sprintf("room %q does not exist", req.Room), req.Ref)
		}
		return domain.Message{}, err
	}

	b.logger.Debug("Message broadcast", "room", req.Room, "messageID", msg.ID, "delivered", fanout)
	return msg, nil
}

// OnClientDisconnect drops the connection's membership, if any.
func (b *Broadcaster) OnClientDisconnect(connectionID string) (string, bool) {
	return b.sessions.Disconnect(connectionID)
}

// SendError delivers an error frame to a single connection.
func (b *Broadcaster) SendError(connectionID, code, message, ref string) {
	b.sendError(connectionID, code, message, ref)
}

func (b *Broadcaster) sendError(connectionID, code, message, ref string) {
	b.send(connectionID, domain.FrameError, domain.ErrorPayload{Code: code, Message: message, Ref: ref})
}

func (b *Broadcaster) send(connectionID, frameType string, data any) {
	frame, err := domain.EncodeFrame(frameType, data)
	if err != nil {
		b.logger.Error("Failed to encode frame", "type", frameType, "error", err)
		return
	}
	if !b.sender.Send(connectionID, frame) {
		b.logger.Warn("Frame not delivered", "type", frameType, "connectionID", connectionID)
	}
}
