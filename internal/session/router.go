package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/BioHazard786/eggcombat/internal/transport"
)

// Router is the host's star relay: every message from one client is
// re-sent, byte for byte, to every other open client.
type Router struct {
	mu    sync.RWMutex
	conns map[string]transport.Conn
	log   *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		conns: make(map[string]transport.Conn),
		log:   log,
	}
}

func (r *Router) Add(c transport.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
}

func (r *Router) Remove(c transport.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c.ID())
}

func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Open returns the connections that can currently deliver.
func (r *Router) Open() []transport.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]transport.Conn, 0, len(r.conns))
	for _, c := range r.conns {
		if c.Open() {
			out = append(out, c)
		}
	}
	return out
}

// Forward relays data from one connection to every other open one and
// returns how many sends were queued. from may be nil for host-originated data.
// lossy data is skipped on congested connections.
func (r *Router) Forward(from transport.Conn, data []byte, lossy bool) int {
	sent := 0
	for _, c := range r.Open() {
		if from != nil && c.ID() == from.ID() {
			continue
		}
		if lossy && transport.Congested(c) {
			continue
		}
		if err := c.Send(data); err != nil {
			// A channel closing under us is not an error for the relay.
			if !errors.Is(err, transport.ErrConnClosed) {
				r.log.Debug("relay send failed", "peer", c.RemotePeer(), "error", err)
			}
			continue
		}
		sent++
	}
	return sent
}

// Broadcast sends host-originated data to every open connection.
func (r *Router) Broadcast(data []byte, lossy bool) int {
	return r.Forward(nil, data, lossy)
}
