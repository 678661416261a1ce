package signal

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/protocol"
)

func (ctl *SignalWSController) handleJoin(sid core.SessionID, in protocol.Inbound) {
	if err := ctl.Orch.Join(sid, in.Room()); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", in.RoomID).Msg("join failed")
	}
}

func (ctl *SignalWSController) handleLeave(sid core.SessionID, in protocol.Inbound) {
	if err := ctl.Orch.Leave(sid, in.Room()); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", in.RoomID).Msg("leave failed")
	}
}

func (ctl *SignalWSController) handleChat(ctx context.Context, sid core.SessionID, in protocol.Inbound) {
	room := in.Room()
	if ctl.Limiter != nil {
		user, ok := ctl.Orch.Registry.UserOf(sid)
		if !ok {
			return
		}
		if !ctl.Limiter.Allow(user) {
			log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("user", string(user)).Msg("chat rate limited")
			ctl.Orch.Notify(sid, room, protocol.ErrCodeRateLimited)
			return
		}
	}

	res, err := ctl.Orch.OnChat(ctx, sid, room, in.Message)
	switch {
	case err == nil:
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).
			Int64("op", res.OpID).Int("send_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("chat relayed")
	case errors.Is(err, core.ErrProtocol):
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("chat rejected")
	case errors.Is(err, core.ErrPersistence):
		// already logged by the router
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("chat failed")
	}
}
