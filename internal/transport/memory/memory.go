// Package memory is an in-process transport: a shared Network plays the public
// signaling registry and every Conn is an ordered, reliable channel.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/BioHazard786/eggcombat/internal/transport"
	"github.com/google/uuid"
)

// Network is the registry peers claim identities on.
type Network struct {
	mu          sync.Mutex
	peers       map[string]*Peer
	unreachable bool
}

func NewNetwork() *Network {
	return &Network{peers: make(map[string]*Peer)}
}

// Factory returns a transport.Factory producing peers on this network.
func (n *Network) Factory() transport.Factory {
	return func() transport.Transport { return n.NewPeer() }
}

// NewPeer creates an unopened peer on the network.
func (n *Network) NewPeer() *Peer {
	return &Peer{
		network: n,
		events:  newDispatcher(),
		conns:   make(map[string]*Conn),
	}
}

// SetUnreachable simulates the signaling service going away for new Opens.
func (n *Network) SetUnreachable(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unreachable = v
}

// Registered reports whether id is currently claimed.
func (n *Network) Registered(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.peers[id]
	return ok
}

func (n *Network) lookup(id string) *Peer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peers[id]
}

// Peer implements transport.Transport on a Network.
type Peer struct {
	network *Network
	events  *dispatcher

	mu     sync.Mutex
	id     string
	ev     transport.Events
	conns  map[string]*Conn
	closed bool
}

var _ transport.Transport = (*Peer)(nil)

// ID returns the registered identity, empty before open.
func (p *Peer) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

func (p *Peer) Open(_ context.Context, id string, ev transport.Events) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return transport.ErrNotOpen
	}
	p.ev = ev
	p.mu.Unlock()

	n := p.network
	n.mu.Lock()
	if n.unreachable {
		n.mu.Unlock()
		p.events.push(func() { ev.Error(transport.ErrSignalingLost) })
		return nil
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, taken := n.peers[id]; taken {
		n.mu.Unlock()
		p.events.push(func() { ev.Error(fmt.Errorf("%w: %s", transport.ErrAddressTaken, id)) })
		return nil
	}
	n.peers[id] = p
	n.mu.Unlock()

	p.mu.Lock()
	p.id = id
	p.mu.Unlock()

	p.events.push(func() { ev.PeerOpen(id) })
	return nil
}

func (p *Peer) ConnectTo(remote string) (transport.Conn, error) {
	p.mu.Lock()
	if p.closed || p.id == "" {
		p.mu.Unlock()
		return nil, transport.ErrNotOpen
	}
	localID, ev := p.id, p.ev
	p.mu.Unlock()

	local := &Conn{id: uuid.NewString(), remote: remote, owner: p}

	target := p.network.lookup(remote)
	if target == nil {
		p.events.push(func() { ev.Error(fmt.Errorf("%w: %s", transport.ErrPeerUnavailable, remote)) })
		return local, nil
	}

	far := &Conn{id: uuid.NewString(), remote: localID, owner: target}
	local.other, far.other = far, local

	p.track(local)
	target.track(far)

	// The far side learns about the connection first so anything we send after
	// our OnOpen is queued behind its OnConnection/OnOpen.
	target.events.push(func() {
		tev := target.eventsSnapshot()
		tev.Connection(far)
		if far.closed.Load() {
			return
		}
		far.open.Store(true)
		tev.Opened(far)
	})
	p.events.push(func() {
		if local.closed.Load() {
			return
		}
		local.open.Store(true)
		ev.Opened(local)
	})
	return local, nil
}

// Close unregisters the identity and closes every connection.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	id := p.id
	conns := make([]*Conn, 0, len(p.conns))
	for _, c := range p.conns {
		conns = append(conns, c)
	}
	p.mu.Unlock()

	if id != "" {
		n := p.network
		n.mu.Lock()
		if n.peers[id] == p {
			delete(n.peers, id)
		}
		n.mu.Unlock()
	}

	for _, c := range conns {
		_ = c.Close()
	}
	p.events.close()
	return nil
}

func (p *Peer) eventsSnapshot() transport.Events {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ev
}

func (p *Peer) track(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[c.id] = c
}

func (p *Peer) forget(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.conns, c.id)
}

// Conn is one end of an in-memory channel.
type Conn struct {
	id     string
	remote string
	owner  *Peer
	other  *Conn

	open      atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ transport.Conn = (*Conn)(nil)

func (c *Conn) ID() string         { return c.id }
func (c *Conn) RemotePeer() string { return c.remote }
func (c *Conn) Open() bool         { return c.open.Load() && !c.closed.Load() }

func (c *Conn) Send(data []byte) error {
	if !c.Open() || c.other == nil {
		return transport.ErrConnClosed
	}
	far := c.other
	cp := make([]byte, len(data))
	copy(cp, data)

	far.owner.events.push(func() {
		if far.closed.Load() {
			return
		}
		far.owner.eventsSnapshot().Data(far, cp)
	})
	return nil
}

func (c *Conn) Close() error {
	c.shutdown()
	if c.other != nil {
		c.other.shutdown()
	}
	return nil
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		wasOpen := c.open.Load()
		c.closed.Store(true)
		c.open.Store(false)
		c.owner.forget(c)
		if !wasOpen && c.other == nil {
			return
		}
		c.owner.events.push(func() {
			c.owner.eventsSnapshot().Closed(c)
		})
	})
}
