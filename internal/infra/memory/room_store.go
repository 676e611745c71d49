package memory

import (
	"sync"
	"time"

	"quizhub-server/internal/app"
)

// RoomStore is an in-memory implementation of app.RoomStore.
type RoomStore struct {
	factory app.RoomFactory
	mu      sync.RWMutex
	rooms   map[string]*app.Room
}

func NewRoomStore(factory app.RoomFactory) *RoomStore {
	return &RoomStore{
		factory: factory,
		rooms:   make(map[string]*app.Room),
	}
}

func (s *RoomStore) GetOrCreate(roomID string) (*app.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[roomID]; ok {
		return room, false
	}
	room := s.factory(roomID)
	s.rooms[roomID] = room
	return room, true
}

func (s *RoomStore) Get(roomID string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// DeleteIdle retires and removes rooms that have been empty since before cutoff.
func (s *RoomStore) DeleteIdle(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id, room := range s.rooms {
		if room.RetireIfIdle(cutoff) {
			delete(s.rooms, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
