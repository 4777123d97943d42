package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one encoded outbound message.
type Frame []byte

// ConnID identifies a single transport connection for its whole life.
type ConnID string

// SignalConnection abstracts the messaging transport of one client.
// Owned by the adapter; the core only sends through it and asks it to close.
type SignalConnection interface {
	// TrySend queues f without blocking. It returns ErrConnClosed on a
	// connection that is not ready and ErrBackpressure when the outbound
	// buffer is full.
	TrySend(f Frame) error
	// Ready reports whether the connection still accepts frames.
	Ready() bool
	// Close flushes already queued frames and then closes the transport.
	// Safe to call more than once.
	Close()
}
