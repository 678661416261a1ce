package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/protocol"
)

// Join adds the connection to room and acknowledges it. Joining again is
// acknowledged the same way.
func (o *Orchestrator) Join(sid core.SessionID, room domain.RoomID) error {
	if err := o.Registry.Join(sid, room); err != nil {
		return err
	}
	o.ack(sid, room, protocol.Joined)
	return nil
}

func (o *Orchestrator) Leave(sid core.SessionID, room domain.RoomID) error {
	if err := o.Registry.Leave(sid, room); err != nil {
		return err
	}
	o.ack(sid, room, protocol.Left)
	return nil
}

func (o *Orchestrator) ack(sid core.SessionID, room domain.RoomID, build func(domain.RoomID) (core.Frame, error)) {
	frame, err := build(room)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode ack")
		return
	}
	if err := o.Registry.Send(sid, frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("ack not delivered")
	}
}

// KickBySID closes the connection and drops its memberships right away,
// without waiting for the transport loop to notice.
func (o *Orchestrator) KickBySID(sid core.SessionID) {
	if o.Registry.Evict(sid) {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("kicked slow consumer")
	}
	o.Registry.Remove(sid)
}

// Disconnect is the transport close path.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.Registry.Remove(sid)
}
