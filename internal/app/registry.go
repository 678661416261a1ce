package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
)

type sessionEntry struct {
	User   domain.UserID
	Conn   core.SignalConnection
	Cancel context.CancelFunc
	Rooms  map[domain.RoomID]struct{}
}

// Registry owns every live connection and the room membership index derived
// from them. One lock guards both maps so the index never diverges from the
// per-connection joined-rooms sets.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	rooms    map[domain.RoomID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		rooms:    make(map[domain.RoomID]map[core.SessionID]struct{}),
	}
}

// Admit registers an authenticated connection with no rooms. cancel, when
// set, is how Evict tears the connection down.
func (r *Registry) Admit(conn core.SignalConnection, user domain.UserID, cancel context.CancelFunc) core.SessionID {
	sid := core.SessionID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		User:   user,
		Conn:   conn,
		Cancel: cancel,
		Rooms:  make(map[domain.RoomID]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user)).Msg("admitted connection")
	return sid
}

// Remove drops the connection and all its memberships in one step.
// It reports false when sid was already gone.
func (r *Registry) Remove(sid core.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	for room := range entry.Rooms {
		r.unindex(sid, room)
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("rooms", len(entry.Rooms)).Msg("removed connection")
	return true
}

func (r *Registry) UserOf(sid core.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.User, true
	}
	return "", false
}

// Send delivers one frame to one connection. Errors are scoped to that
// recipient and wrap core.ErrDelivery.
func (r *Registry) Send(sid core.SessionID, f core.Frame) error {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return deliveryError(core.ErrUnknownSession)
	}
	if err := e.Conn.TrySend(f); err != nil {
		return deliveryError(err)
	}
	return nil
}

// Evict forces a connection closed. The transport loop notices and calls Remove.
func (r *Registry) Evict(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	e.Conn.Close()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("evicted connection")
	return true
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
