package chat

import (
	"encoding/json"
	"sync"
	"testing"

	domain "github.com/example/chatroom-demo/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// fakeSender records every frame per connection.
type fakeSender struct {
	mu     sync.Mutex
	frames map[string][][]byte
	refuse map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		frames: make(map[string][][]byte),
		refuse: make(map[string]bool),
	}
}

func (s *fakeSender) Send(connectionID string, frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuse[connectionID] {
		return false
	}
	s.frames[connectionID] = append(s.frames[connectionID], frame)
	return true
}

func (s *fakeSender) raw(connectionID string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames[connectionID]))
	copy(out, s.frames[connectionID])
	return out
}

func (s *fakeSender) decoded(t *testing.T, connectionID string) []domain.Frame {
	t.Helper()
	raw := s.raw(connectionID)
	frames := make([]domain.Frame, 0, len(raw))
	for _, r := range raw {
		f, err := domain.DecodeFrame(r)
		require.NoError(t, err)
		frames = append(frames, f)
	}
	return frames
}

// receivedIDs returns the ids of every message the connection saw, from the
// catch-up and from broadcasts, in arrival order.
func (s *fakeSender) receivedIDs(t *testing.T, connectionID string) []string {
	t.Helper()
	var ids []string
	for _, f := range s.decoded(t, connectionID) {
		switch f.Type {
		case domain.FrameInitialMessages:
			var msgs []domain.Message
			require.NoError(t, json.Unmarshal(f.Data, &msgs))
			for _, m := range msgs {
				ids = append(ids, m.ID)
			}
		case domain.FrameReceiveMessage:
			var m domain.Message
			require.NoError(t, json.Unmarshal(f.Data, &m))
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = make(map[string][][]byte)
}

var defaultRooms = []string{"General", "Technology", "Gaming", "Random"}

func newTestBroadcaster(strict bool) (*Broadcaster, *Registry, *Sessions, *fakeSender) {
	registry := NewRegistry(defaultRooms)
	sessions := NewSessions(registry)
	sender := newFakeSender()
	return NewBroadcaster(registry, sessions, sender, strict, &mockLogger{}), registry, sessions, sender
}
