package core

import "github.com/dkeye/Canvas/internal/domain"

type SessionID string

// Recipient is a point-in-time view of one room member used for fan-out.
type Recipient struct {
	SID  SessionID
	User domain.UserID
	Conn SignalConnection
}

// CredentialVerifier turns an opaque bearer credential into a user identity.
// Every rejection wraps ErrAuth.
type CredentialVerifier interface {
	Verify(token string) (domain.UserID, error)
}
