package chat

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrame_MessageShape(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, err := EncodeFrame(FrameReceiveMessage, Message{ID: "1", User: "alice", Text: "hi", Timestamp: ts})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, FrameReceiveMessage, decoded["type"])
	data, ok := decoded["data"].(map[string]any)
	require.True(t, ok, "data should be an object")
	assert.Equal(t, "1", data["id"])
	assert.Equal(t, "alice", data["user"])
	assert.Equal(t, "hi", data["text"])
	assert.Equal(t, "2024-05-01T12:00:00Z", data["timestamp"])
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		wantErr  bool
	}{
		{name: "join frame", raw: `{"type":"join_room","data":"General"}`, wantType: FrameJoinRoom},
		{name: "send frame", raw: `{"type":"send_message","data":{"room":"General","user":"a","text":"b"}}`, wantType: FrameSendMessage},
		{name: "not json", raw: `hello`, wantErr: true},
		{name: "missing type", raw: `{"data":"General"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeFrame([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFrame))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, frame.Type)
		})
	}
}

func TestFrame_DecodeData(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"type":"send_message","data":{"room":"General","user":"alice","text":"hi","ref":"r1"}}`))
	require.NoError(t, err)

	var payload SendPayload
	require.NoError(t, frame.DecodeData(&payload))
	assert.Equal(t, SendPayload{Room: "General", User: "alice", Text: "hi", Ref: "r1"}, payload)

	var room string
	err = Frame{Type: FrameJoinRoom}.DecodeData(&room)
	assert.ErrorIs(t, err, ErrInvalidFrame)

	err = Frame{Type: FrameJoinRoom, Data: json.RawMessage(`{"room":1}`)}.DecodeData(&room)
	assert.ErrorIs(t, err, ErrInvalidFrame)
}
