package core

// Frame is one encoded outbound protocol message.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend must not block. A full buffer returns ErrBackpressure,
	// a closed transport ErrConnClosed.
	TrySend(Frame) error
	Close()
}
