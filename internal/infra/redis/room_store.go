package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizhub-server/internal/app"
)

// RoomStore is a Redis-aware implementation of app.RoomStore.
// Notes:
//   - Rooms still live in a local map; a room's lock is the only authority over
//     its state and that cannot be shared across processes.
//   - Redis holds a liveness marker per room so instances sharing it can see which
//     room codes are taken.
type RoomStore struct {
	client  *redis.Client
	ttl     time.Duration
	factory app.RoomFactory
	mu      sync.RWMutex
	rooms   map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration, factory app.RoomFactory) *RoomStore {
	return &RoomStore{
		client:  client,
		ttl:     ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(roomID), "1", s.ttl).Err()
	return room, true
}

func (s *RoomStore) Get(roomID string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// DeleteIdle retires idle rooms, removes their markers and refreshes the
// markers of rooms that are still in use.
func (s *RoomStore) DeleteIdle(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	pipe := s.client.Pipeline()
	var removed []string
	for id, room := range s.rooms {
		if room.RetireIfIdle(cutoff) {
			delete(s.rooms, id)
			removed = append(removed, id)
			pipe.Del(ctx, s.key(id))
			continue
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key(id), s.ttl)
		}
	}
	if pipe.Len() > 0 {
		_, _ = pipe.Exec(ctx)
	}
	return removed
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Taken reports whether any instance holds a marker for roomID.
func (s *RoomStore) Taken(ctx context.Context, roomID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(roomID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RoomStore) key(roomID string) string {
	return "quizhub:room:" + roomID
}
