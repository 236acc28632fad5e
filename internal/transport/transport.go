// Package transport abstracts a peer's data channels so the session layer can run
// over WebRTC in production and over an in-memory network in tests.
package transport

import (
	"context"
	"errors"
)

var (
	ErrAddressTaken    = errors.New("address already claimed")
	ErrPeerUnavailable = errors.New("peer unavailable")
	ErrSignalingLost   = errors.New("signaling server unreachable")
	ErrConnClosed      = errors.New("connection not open")
	ErrNotOpen         = errors.New("transport not open")
)

// Conn is one data channel to a remote peer.
type Conn interface {
	// ID uniquely identifies this connection on the local peer.
	ID() string

	// RemotePeer is the identity of the peer on the other end.
	RemotePeer() string

	// Open reports whether Send can currently deliver.
	Open() bool

	// Send queues data for delivery. It never blocks on the network.
	Send(data []byte) error

	// Close tears the channel down; OnClose fires on both ends.
	Close() error
}

// Events receives transport callbacks. Nil fields are ignored.
// Callbacks may run on transport goroutines.
type Events struct {
	// OnPeerOpen fires once the local identity is registered.
	OnPeerOpen func(id string)

	// OnConnection fires when a remote peer dials us.
	OnConnection func(c Conn)

	OnOpen  func(c Conn)
	OnData  func(c Conn, data []byte)
	OnClose func(c Conn)

	// OnError reports transport level failures (address taken, signaling lost,
	// peer unavailable). None of them are fatal for the process.
	OnError func(err error)
}

// Transport is a single peer's view of the network.
type Transport interface {
	// Open registers the local identity. An empty id asks for an auto-assigned one.
	// The outcome arrives through Events.OnPeerOpen or Events.OnError.
	Open(ctx context.Context, id string, ev Events) error

	// ConnectTo dials a remote identity. The returned Conn fires OnOpen once usable.
	ConnectTo(remote string) (Conn, error)

	// Close destroys the peer and every connection it owns.
	Close() error
}

// Congested reports whether c has queued more than it should before new data
// is worth sending. Conns that do not track their buffer are never congested.
func Congested(c Conn) bool {
	b, ok := c.(interface{ Congested() bool })
	return ok && b.Congested()
}

// Factory builds a fresh Transport per session; identities are never reused.
type Factory func() Transport

func (e Events) PeerOpen(id string) {
	if e.OnPeerOpen != nil {
		e.OnPeerOpen(id)
	}
}

func (e Events) Connection(c Conn) {
	if e.OnConnection != nil {
		e.OnConnection(c)
	}
}

func (e Events) Opened(c Conn) {
	if e.OnOpen != nil {
		e.OnOpen(c)
	}
}

func (e Events) Data(c Conn, data []byte) {
	if e.OnData != nil {
		e.OnData(c, data)
	}
}

func (e Events) Closed(c Conn) {
	if e.OnClose != nil {
		e.OnClose(c)
	}
}

func (e Events) Error(err error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}
