package core

// Frame is a single encoded protocol message.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues a frame without blocking. It fails when the
	// consumer's outbound buffer is full or the connection is closed.
	TrySend(Frame) error
	Close()
}
