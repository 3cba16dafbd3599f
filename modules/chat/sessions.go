package chat

import (
	"fmt"
	"sync"

	domain "github.com/example/chatroom-demo/domain/chat"
)

// RoomChecker reports whether a room name is configured.
type RoomChecker interface {
	Has(name string) bool
}

// Sessions tracks the single room each live connection belongs to.
type Sessions struct {
	rooms   RoomChecker
	mu      sync.RWMutex
	current map[string]string              // connectionID -> room
	members map[string]map[string]struct{} // room -> set of connectionIDs
}

// NewSessions creates an empty session table validating rooms against rooms.
func NewSessions(rooms RoomChecker) *Sessions {
	return &Sessions{
		rooms:   rooms,
		current: make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

// Join moves the connection into room and returns the room it was in before,
// or "" if none. Any previous membership is dropped first, even when room
// turns out to be unknown, so a connection is never a member of two rooms.
// Joining the current room again is not an error.
func (s *Sessions) Join(connectionID, room string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _ := s.leaveLocked(connectionID)

	if !s.rooms.Has(room) {
		return prev, fmt.Errorf("join %q: %w", room, domain.ErrUnknownRoom)
	}

	set, ok := s.members[room]
	if !ok {
		set = make(map[string]struct{})
		s.members[room] = set
	}
	set[connectionID] = struct{}{}
	s.current[connectionID] = room
	return prev, nil
}

// Leave drops the connection's membership and returns the room it was in.
func (s *Sessions) Leave(connectionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaveLocked(connectionID)
}

// Disconnect is Leave for a connection whose transport went away.
func (s *Sessions) Disconnect(connectionID string) (string, bool) {
	return s.Leave(connectionID)
}

func (s *Sessions) leaveLocked(connectionID string) (string, bool) {
	room, ok := s.current[connectionID]
	if !ok {
		return "", false
	}
	delete(s.current, connectionID)
	if set, ok := s.members[room]; ok {
		delete(set, connectionID)
		if len(set) == 0 {
			delete(s.members, room)
		}
	}
	return room, true
}

// MembersOf returns the connections currently in room, in no particular order.
func (s *Sessions) MembersOf(room string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.members[room]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// RoomOf returns the room the connection is in, if any.
func (s *Sessions) RoomOf(connectionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.current[connectionID]
	return room, ok
}

// Count returns the number of connections that are in a room.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// RoomCount returns the number of connections in room.
func (s *Sessions) RoomCount(room string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members[room])
}
