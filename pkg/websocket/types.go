package websocket

import (
	"context"
	"time"
)

// State is the lifecycle state of a client connection.
type State uint8

const (
	// StateIdle means no connection exists and none is pending.
	StateIdle State = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateOpen means the socket is established and readable.
	StateOpen
	// StateClosed means the socket dropped; a reconnect may be pending.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Message types, matching RFC 6455 opcodes (and gorilla/websocket values).
const (
	TextMessage   = 1
	BinaryMessage = 2
)

// Conn is the minimal socket surface the client needs.
// *gorilla/websocket.Conn satisfies it directly.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc opens a socket to the given URL.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// Backoff defines reconnect backoff behavior.
type Backoff struct {
	// Min is the base delay doubled per attempt.
	Min time.Duration
	// Max caps the delay.
	Max time.Duration
}
