// Package protocol holds the wire format exchanged over the signal socket.
package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
)

type MessageType string

const (
	TypeJoinRoom  MessageType = "join_room"
	TypeLeaveRoom MessageType = "leave_room"
	TypeChat      MessageType = "chat"

	TypeRoomJoined MessageType = "room_joined"
	TypeRoomLeft   MessageType = "room_left"
	TypeError      MessageType = "error"
)

// Error codes carried by TypeError notices.
const (
	ErrCodePersistFailed = "persist_failed"
	ErrCodeNotJoined     = "not_joined"
	ErrCodeRateLimited   = "rate_limited"
)

// Inbound is one client message. Message is the drawing operation payload
// and is never interpreted by the server.
type Inbound struct {
	Type    MessageType `json:"type" validate:"required,oneof=join_room leave_room chat"`
	RoomID  string      `json:"roomId" validate:"required,max=128"`
	Message string      `json:"message,omitempty" validate:"required_if=Type chat"`
}

type Outbound struct {
	Type    MessageType `json:"type"`
	RoomID  string      `json:"roomId"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses and validates one inbound frame.
// Every failure wraps core.ErrProtocol.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", core.ErrProtocol, err)
	}
	if err := validate.Struct(in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", core.ErrProtocol, err)
	}
	// validator counts runes; room ids are bounded in bytes everywhere else.
	if _, err := domain.ParseRoomID(in.RoomID); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", core.ErrProtocol, err)
	}
	return in, nil
}

func (in Inbound) Room() domain.RoomID { return domain.RoomID(in.RoomID) }

// Chat builds the relayed frame. HTML escaping is off so recipients see
// exactly what the author sent.
func Chat(room domain.RoomID, payload string) (core.Frame, error) {
	return encode(Outbound{Type: TypeChat, RoomID: string(room), Message: payload})
}

func Joined(room domain.RoomID) (core.Frame, error) {
	return encode(Outbound{Type: TypeRoomJoined, RoomID: string(room)})
}

func Left(room domain.RoomID) (core.Frame, error) {
	return encode(Outbound{Type: TypeRoomLeft, RoomID: string(room)})
}

func Error(room domain.RoomID, code string) (core.Frame, error) {
	return encode(Outbound{Type: TypeError, RoomID: string(room), Error: code})
}

func encode(out Outbound) (core.Frame, error) {
	b, err := json.MarshalWithOption(out, json.DisableHTMLEscape())
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
