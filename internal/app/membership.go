package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
)

// Join adds room to the connection's set and indexes it. Joining twice is a no-op.
func (r *Registry) Join(sid core.SessionID, room domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return core.ErrUnknownSession
	}
	if _, joined := entry.Rooms[room]; joined {
		return nil
	}
	entry.Rooms[room] = struct{}{}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[core.SessionID]struct{})
		r.rooms[room] = members
	}
	members[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Int("members", len(members)).Msg("joined room")
	return nil
}

// Leave is the inverse of Join. Leaving a room never joined is a no-op.
func (r *Registry) Leave(sid core.SessionID, room domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return core.ErrUnknownSession
	}
	if _, joined := entry.Rooms[room]; !joined {
		return nil
	}
	delete(entry.Rooms, room)
	r.unindex(sid, room)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("left room")
	return nil
}

// unindex expects r.mu to be held for writing.
func (r *Registry) unindex(sid core.SessionID, room domain.RoomID) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

func (r *Registry) IsMember(sid core.SessionID, room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][sid]
	return ok
}

// MembersOf returns a snapshot of the room taken at call time. Joins and
// leaves that happen while the caller iterates are not reflected.
func (r *Registry) MembersOf(room domain.RoomID) []core.Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]core.Recipient, 0, len(members))
	for sid := range members {
		e := r.sessions[sid]
		out = append(out, core.Recipient{SID: sid, User: e.User, Conn: e.Conn})
	}
	return out
}

// List reports every room that currently has at least one member.
func (r *Registry) List() []core.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(r.rooms))
	for id, members := range r.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: len(members)})
	}
	return out
}

func deliveryError(err error) error {
	return fmt.Errorf("%w: %w", core.ErrDelivery, err)
}
