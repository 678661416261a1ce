package orch

import (
	"sync"

	"github.com/dkeye/Canvas/internal/domain"
)

// roomSequencer hands out one lock per room. Entries are refcounted and
// dropped when the last holder releases, so idle rooms cost nothing.
type roomSequencer struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*roomSlot
}

type roomSlot struct {
	mu   sync.Mutex
	refs int
}

func (s *roomSequencer) acquire(room domain.RoomID) (release func()) {
	s.mu.Lock()
	if s.rooms == nil {
		s.rooms = make(map[domain.RoomID]*roomSlot)
	}
	slot, ok := s.rooms[room]
	if !ok {
		slot = &roomSlot{}
		s.rooms[room] = slot
	}
	slot.refs++
	s.mu.Unlock()

	slot.mu.Lock()
	return func() {
		slot.mu.Unlock()
		s.mu.Lock()
		slot.refs--
		if slot.refs == 0 {
			delete(s.rooms, room)
		}
		s.mu.Unlock()
	}
}

func (s *roomSequencer) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
