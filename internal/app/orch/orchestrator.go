// Package orch routes inbound protocol messages: it mutates membership,
// persists operations and fans them out to the room.
package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Canvas/internal/app"
	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/protocol"
)

const DefaultStoreTimeout = 5 * time.Second

type Orchestrator struct {
	Registry     *app.Registry
	Store        core.OperationStore
	Policy       app.Policy
	StoreTimeout time.Duration

	seq roomSequencer
}

func New(reg *app.Registry, store core.OperationStore, policy app.Policy, storeTimeout time.Duration) *Orchestrator {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Orchestrator{
		Registry:     reg,
		Store:        store,
		Policy:       policy,
		StoreTimeout: storeTimeout,
	}
}

// OnChat persists one operation and relays it to every other member of room.
// Nothing is sent when the sender is not a member or the store rejects the
// write. Operations of one room are persisted and broadcast one at a time,
// so every member observes them in store order.
func (o *Orchestrator) OnChat(ctx context.Context, sid core.SessionID, room domain.RoomID, payload string) (core.PublishResult, error) {
	author, ok := o.Registry.UserOf(sid)
	if !ok {
		return core.PublishResult{}, core.ErrUnknownSession
	}
	if !o.Registry.IsMember(sid, room) {
		o.Notify(sid, room, protocol.ErrCodeNotJoined)
		return core.PublishResult{}, fmt.Errorf("%w: %w: %s", core.ErrProtocol, core.ErrNotMember, room)
	}

	release := o.seq.acquire(room)
	defer release()

	opID, err := o.persist(ctx, room, author, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("operation not persisted")
		o.Notify(sid, room, protocol.ErrCodePersistFailed)
		return core.PublishResult{}, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}

	frame, err := protocol.Chat(room, payload)
	if err != nil {
		return core.PublishResult{OpID: opID}, fmt.Errorf("encode chat: %w", err)
	}

	res := o.broadcast(sid, room, frame)
	res.OpID = opID
	o.applyPolicy(room, res.Dropped)
	return res, nil
}

func (o *Orchestrator) persist(ctx context.Context, room domain.RoomID, author domain.UserID, payload string) (int64, error) {
	timeout := o.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return o.Store.Append(ctx, room, author, payload)
}

// broadcast sends frame to the membership observed now, skipping the sender.
// A failed recipient never stops delivery to the rest.
func (o *Orchestrator) broadcast(from core.SessionID, room domain.RoomID, frame core.Frame) core.PublishResult {
	var res core.PublishResult
	for _, m := range o.Registry.MembersOf(room) {
		if m.SID == from {
			continue
		}
		res.SendTo++
		if err := m.Conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("sid", string(m.SID)).Str("user", string(m.User)).
				Str("room", string(room)).Msg("recipient missed operation")
			res.Dropped = append(res.Dropped, core.Delivery{SID: m.SID, Err: fmt.Errorf("%w: %w", core.ErrDelivery, err)})
		}
	}
	return res
}

func (o *Orchestrator) applyPolicy(room domain.RoomID, dropped []core.Delivery) {
	if o.Policy == nil {
		return
	}
	for _, d := range dropped {
		switch o.Policy.OnDeliveryFailure(room, d) {
		case app.KickMember:
			o.KickBySID(d.SID)
		case app.NoAction:
		}
	}
}

// Notify sends an error notice to one connection. It is best effort: a
// sender that cannot be reached just misses it.
func (o *Orchestrator) Notify(sid core.SessionID, room domain.RoomID, code string) {
	frame, err := protocol.Error(room, code)
	if err != nil {
		return
	}
	if err := o.Registry.Send(sid, frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("code", code).Msg("notice not delivered")
	}
}
