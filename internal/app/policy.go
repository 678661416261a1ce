package app

import (
	"errors"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a recipient that missed a frame.
type Policy interface {
	OnDeliveryFailure(room domain.RoomID, d core.Delivery) BackpressureAction
}

// KickSlowPolicy evicts recipients whose send buffer is full or whose
// transport is already closed. Anything else is only recorded.
type KickSlowPolicy struct{}

func (KickSlowPolicy) OnDeliveryFailure(_ domain.RoomID, d core.Delivery) BackpressureAction {
	if errors.Is(d.Err, core.ErrBackpressure) || errors.Is(d.Err, core.ErrConnClosed) {
		return KickMember
	}
	return NoAction
}

// IgnorePolicy records failures and never evicts.
type IgnorePolicy struct{}

func (IgnorePolicy) OnDeliveryFailure(domain.RoomID, core.Delivery) BackpressureAction { return NoAction }

// PolicyFor maps the slow_consumer config value onto a Policy.
func PolicyFor(name string) Policy {
	if name == "ignore" {
		return IgnorePolicy{}
	}
	return KickSlowPolicy{}
}
