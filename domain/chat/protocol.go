package chat

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged over the WebSocket connection.
const (
	FrameJoinRoom        = "join_room"
	FrameSendMessage     = "send_message"
	FrameInitialMessages = "initial_messages"
	FrameReceiveMessage  = "receive_message"
	FrameMessageAck      = "message_ack"
	FrameError           = "error"
)

// Frame is the envelope of every WebSocket message in both directions.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SendPayload is the data of a send_message frame.
// Ref is an optional client correlation id echoed in acks and errors.
type SendPayload struct {
	Room string `json:"room"`
	User string `json:"user"`
	Text string `json:"text"`
	Ref  string `json:"ref,omitempty"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"`
}

// AckPayload is the data of a message_ack frame.
type AckPayload struct {
	Ref  string `json:"ref,omitempty"`
	ID   string `json:"id"`
	Room string `json:"room"`
}

// EncodeFrame marshals data and wraps it in a frame of the given type.
func EncodeFrame(frameType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s data: %w", frameType, err)
	}
	return json.Marshal(Frame{Type: frameType, Data: raw})
}

// DecodeFrame parses a raw WebSocket message into a frame.
func DecodeFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if frame.Type == "" {
		return Frame{}, fmt.Errorf("%w: missing type", ErrInvalidFrame)
	}
	return frame, nil
}

// DecodeData unmarshals the frame data into v.
func (f Frame) DecodeData(v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: %s frame has no data", ErrInvalidFrame, f.Type)
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrInvalidFrame, f.Type, err)
	}
	return nil
}
