package session

import "time"

// Conn is one client connection as seen by a session. Implementations frame
// messages for their transport; a frame is one JSON object.
type Conn interface {
	// ReadFrame blocks until the next inbound frame. It returns io.EOF once
	// the peer has gone.
	ReadFrame() ([]byte, error)
	// WriteFrame sends one outbound frame
	WriteFrame(frame []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
	RemoteAddr() string
	// Transport names the transport for logs and metrics, e.g. "tcp" or "ws"
	Transport() string
}
