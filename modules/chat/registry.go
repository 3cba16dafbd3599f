package chat

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "github.com/example/chatroom-demo/domain/chat"
)

// roomLog is the append-only message log of a single room.
// mu serializes id assignment, log mutation and everything run under it.
type roomLog struct {
	mu       sync.Mutex
	lastID   uint64
	messages []domain.Message
}

// Registry owns the fixed set of rooms and their message logs.
// The room table is built once in NewRegistry and never mutated afterwards,
// so lookups need no lock; each log has its own.
type Registry struct {
	names      []string
	rooms      map[string]*roomLog
	maxHistory int
	now        func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxHistory caps the number of messages kept per room.
// Zero or a negative value keeps the log unbounded.
func WithMaxHistory(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxHistory = n
		}
	}
}

// WithClock overrides the clock used for message timestamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a registry with one empty room per configured name.
// Blank and duplicate names are skipped; the first occurrence fixes the order.
func NewRegistry(names []string, opts ...RegistryOption) *Registry {
	r := &Registry{
		names: make([]string, 0, len(names)),
		rooms: make(map[string]*roomLog, len(names)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := r.rooms[name]; exists {
			continue
		}
		r.names = append(r.names, name)
		r.rooms[name] = &roomLog{messages: make([]domain.Message, 0)}
	}
	return r
}

// RoomNames returns the configured room names in configuration order.
func (r *Registry) RoomNames() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Has reports whether name is a configured room.
func (r *Registry) Has(name string) bool {
	_, ok := r.rooms[name]
	return ok
}

// Messages returns a copy of the room's log.
// An unknown room yields an empty log rather than an error.
func (r *Registry) Messages(name string) []domain.Message {
	result := []domain.Message{}
	r.SnapshotFunc(name, func(messages []domain.Message) {
		result = messages
	})
	return result
}

// SnapshotFunc calls fn with a copy of the room's log while the room lock is
// held, so no message can be appended to the room until fn returns.
// It reports false, without calling fn, for an unknown room.
func (r *Registry) SnapshotFunc(name string, fn func(messages []domain.Message)) bool {
	room, ok := r.rooms[name]
	if !ok {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	snapshot := make([]domain.Message, len(room.messages))
	copy(snapshot, room.messages)
	fn(snapshot)
	return true
}

// Append adds a message to the room's log and returns it.
func (r *Registry) Append(name, author, body string) (domain.Message, error) {
	return r.AppendFunc(name, author, body, nil)
}

// AppendFunc appends a message and, when fn is not nil, calls it with the new
// message before the room lock is released. Readers therefore observe the
// append and whatever fn does (the fan-out) as one step, in append order.
func (r *Registry) AppendFunc(name, author, body string, fn func(msg domain.Message)) (domain.Message, error) {
	room, ok := r.rooms[name]
	if !ok {
		return domain.Message{}, fmt.Errorf("append to %q: %w", name, domain.ErrUnknownRoom)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	room.lastID++
	msg := domain.Message{
		ID:        strconv.FormatUint(room.lastID, 10),
		User:      author,
		Text:      body,
		Timestamp: r.now(),
	}

	room.messages = append(room.messages, msg)
	if r.maxHistory > 0 && len(room.messages) > r.maxHistory {
		trimmed := make([]domain.Message, r.maxHistory)
		copy(trimmed, room.messages[len(room.messages)-r.maxHistory:])
		room.messages = trimmed
	}

	if fn != nil {
		fn(msg)
	}
	return msg, nil
}

// Len returns the number of messages currently kept for the room.
func (r *Registry) Len(name string) int {
	room, ok := r.rooms[name]
	if !ok {
		return 0
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return len(room.messages)
}
