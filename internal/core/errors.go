package core

import "errors"

var (
	// ErrAuth is fatal to connection admission.
	ErrAuth = errors.New("invalid credential")
	// ErrProtocol drops a single inbound message; the connection stays open.
	ErrProtocol = errors.New("malformed message")
	// ErrPersistence gates broadcast: an operation that failed to persist is never relayed.
	ErrPersistence = errors.New("operation not persisted")
	// ErrDelivery is scoped to one recipient of a fan-out.
	ErrDelivery = errors.New("delivery failed")

	ErrBackpressure   = errors.New("backpressure")
	ErrConnClosed     = errors.New("connection closed")
	ErrUnknownSession = errors.New("unknown session")
	ErrNotMember      = errors.New("not a member of room")
)
