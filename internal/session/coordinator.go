// Package session runs the multiplayer connection lifecycle: who hosts, who joins,
// and how move, hit and leave messages reach the peer table.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BioHazard786/eggcombat/internal/protocol"
	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/BioHazard786/eggcombat/internal/transport"
)

const updateBuffer = 16

// DefaultHandshakeTimeout bounds HOSTING_WAIT_OPEN and CLIENT_CONNECTING.
const DefaultHandshakeTimeout = 15 * time.Second

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(gen func() roomcode.Code) Option {
	return func(c *Coordinator) { c.generate = gen }
}

func WithNamespace(ns roomcode.Namespace) Option {
	return func(c *Coordinator) { c.ns = ns }
}

// WithHandshakeTimeout limits how long a session may stay pending before it
// fails back to IDLE. Zero or negative disables the limit.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.handshake = d }
}

// Coordinator owns the local network identity and the session state machine.
// Transport callbacks arrive on transport goroutines; all state sits behind mu.
// Each started session gets a fresh epoch so callbacks from a torn down
// transport are ignored.
type Coordinator struct {
	store     *Store
	factory   transport.Factory
	log       *slog.Logger
	generate  func() roomcode.Code
	ns        roomcode.Namespace
	handshake time.Duration

	mu       sync.Mutex
	epoch    uint64
	state    State
	role     Role
	code     roomcode.Code
	localID  string
	tr       transport.Transport
	router   *Router
	upstream transport.Conn
	deadline *time.Timer

	updates chan Update
}

func NewCoordinator(store *Store, factory transport.Factory, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		factory:   factory,
		log:       slog.Default(),
		generate:  roomcode.Generate,
		handshake: DefaultHandshakeTimeout,
		updates:   make(chan Update, updateBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Updates delivers state changes. Old updates are dropped if nobody reads.
func (c *Coordinator) Updates() <-chan Update {
	return c.updates
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// RoomCode is empty until the host's address is registered.
func (c *Coordinator) RoomCode() roomcode.Code {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.role == RoleHost && c.state != StateConnected {
		return ""
	}
	return c.code
}

func (c *Coordinator) LocalID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localID
}

// Connections counts open data channels: clients on the host, the host link on a client.
func (c *Coordinator) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.router != nil:
		return len(c.router.Open())
	case c.upstream != nil && c.upstream.Open():
		return 1
	default:
		return 0
	}
}

func (c *Coordinator) Store() *Store {
	return c.store
}

// StartHost claims a fresh room address. The outcome arrives as an Update:
// CONNECTED once registered, IDLE with an error otherwise.
func (c *Coordinator) StartHost(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return WrapError("start host", ErrInvalidTransition, "from "+state.String())
	}

	code := c.generate()
	tr := c.factory()
	epoch := c.begin(tr, RoleHost, code, StateHostingWaitOpen)
	c.mu.Unlock()

	addr := c.ns.ToAddress(code)
	c.log.Info("hosting room", "code", code, "address", addr)

	if err := tr.Open(ctx, addr, c.hostEvents(epoch)); err != nil {
		serr := WrapError("start host", ErrTransportOpen, err.Error())
		c.fail(epoch, serr)
		return serr
	}
	return nil
}

// JoinRoom opens an anonymous identity and dials the room's address.
func (c *Coordinator) JoinRoom(ctx context.Context, code roomcode.Code) error {
	code, err := roomcode.Parse(string(code))
	if err != nil {
		return NewError("join room", err)
	}

	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return WrapError("join room", ErrInvalidTransition, "from "+state.String())
	}

	tr := c.factory()
	epoch := c.begin(tr, RoleClient, code, StateClientConnecting)
	c.mu.Unlock()

	c.log.Info("joining room", "code", code)

	if err := tr.Open(ctx, "", c.clientEvents(epoch)); err != nil {
		serr := WrapError("join room", ErrTransportOpen, err.Error())
		c.fail(epoch, serr)
		return serr
	}
	return nil
}

// Leave closes every connection and discards the peer table. It is valid from any state.
func (c *Coordinator) Leave() {
	c.mu.Lock()
	if c.state == StateIdle && c.tr == nil {
		c.mu.Unlock()
		return
	}
	tr := c.teardown(Update{State: StateIdle})
	c.mu.Unlock()

	c.log.Info("left session")
	closeTransport(tr, c.log)
}

// Publish sends a locally originated message. The sender id is always the local identity.
func (c *Coordinator) Publish(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected {
		return NewError("publish", ErrNotConnected)
	}
	msg.ID = c.localID
	if err := msg.Validate(); err != nil {
		return NewError("publish", err)
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return NewError("publish", err)
	}

	if msg.Type == protocol.TypeHit && msg.Target != c.localID {
		c.store.Peers.ApplyHit(msg.Target, msg.Damage)
	}

	// Moves are superseded every tick; anything else must get through.
	lossy := msg.Type == protocol.TypeMove
	switch c.role {
	case RoleHost:
		c.router.Broadcast(data, lossy)
	case RoleClient:
		if c.upstream == nil {
			return NewError("publish", ErrNotConnected)
		}
		if lossy && transport.Congested(c.upstream) {
			return nil
		}
		if err := c.upstream.Send(data); err != nil && !errors.Is(err, transport.ErrConnClosed) {
			return NewError("publish", err)
		}
	}
	return nil
}

// begin installs a new transport. Caller holds mu.
func (c *Coordinator) begin(tr transport.Transport, role Role, code roomcode.Code, state State) uint64 {
	c.epoch++
	c.tr = tr
	c.role = role
	c.code = code
	c.localID = ""
	c.upstream = nil
	c.router = nil
	if role == RoleHost {
		c.router = NewRouter(c.log)
	}
	c.store.Peers.Reset()
	c.setState(state, nil)
	c.arm(c.epoch)
	return c.epoch
}

// arm starts the handshake deadline for epoch. Caller holds mu.
func (c *Coordinator) arm(epoch uint64) {
	c.disarm()
	if c.handshake <= 0 {
		return
	}
	c.deadline = time.AfterFunc(c.handshake, func() { c.expire(epoch) })
}

// disarm stops a pending handshake deadline. Caller holds mu.
func (c *Coordinator) disarm() {
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
}

// expire fails a session that is still pending when its deadline fires.
func (c *Coordinator) expire(epoch uint64) {
	if !c.lock(epoch) {
		return
	}
	var serr error
	switch {
	case c.state == StateHostingWaitOpen:
		serr = WrapError("start host", ErrTransportOpen, "timed out")
	case c.state == StateClientConnecting && c.localID == "":
		serr = WrapError("join room", ErrTransportOpen, "timed out")
	case c.state == StateClientConnecting:
		serr = WrapError("join room", ErrTransportConnect, "timed out")
	}
	c.mu.Unlock()

	if serr != nil {
		c.fail(epoch, serr)
	}
}

// teardown resets to a fresh state and returns the transport to close once
// mu is released. Caller holds mu.
func (c *Coordinator) teardown(u Update) transport.Transport {
	c.disarm()
	c.epoch++
	tr := c.tr
	c.tr = nil
	c.role = RoleNone
	c.code = ""
	c.localID = ""
	c.upstream = nil
	c.router = nil
	c.store.Discard()
	c.setState(u.State, u.Err)
	return tr
}

// fail returns a pending session to IDLE with err.
func (c *Coordinator) fail(epoch uint64, err error) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	tr := c.teardown(Update{State: StateIdle, Err: err})
	c.mu.Unlock()

	c.log.Warn("session failed", "error", err)
	closeTransport(tr, c.log)
}

// setState records and publishes a transition. Caller holds mu.
func (c *Coordinator) setState(s State, err error) {
	c.state = s
	u := Update{State: s, Role: c.role, Err: err}
	if c.role == RoleClient || s == StateConnected {
		u.Code = c.code
	}
	select {
	case c.updates <- u:
	default:
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- u:
		default:
		}
	}
}

// lock acquires mu if epoch is still current.
func (c *Coordinator) lock(epoch uint64) bool {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return false
	}
	return true
}

func (c *Coordinator) hostEvents(epoch uint64) transport.Events {
	return transport.Events{
		OnPeerOpen: func(id string) {
			if !c.lock(epoch) {
				return
			}
			defer c.mu.Unlock()
			if c.state != StateHostingWaitOpen {
				return
			}
			c.localID = id
			c.disarm()
			c.store.Local.Reset()
			c.setState(StateConnected, nil)
			c.log.Info("room open", "code", c.code, "id", id)
		},
		OnConnection: func(conn transport.Conn) {
			if !c.lock(epoch) {
				return
			}
			defer c.mu.Unlock()
			c.router.Add(conn)
			c.log.Debug("incoming connection", "peer", conn.RemotePeer())
		},
		OnOpen: func(conn transport.Conn) {
			c.log.Info("player joined", "peer", conn.RemotePeer())
		},
		OnData: func(conn transport.Conn, data []byte) {
			if !c.lock(epoch) {
				return
			}
			defer c.mu.Unlock()
			msg, ok := c.receive(conn, data)
			if !ok {
				return
			}
			c.router.Forward(conn, data, msg.Type == protocol.TypeMove)
		},
		OnClose: func(conn transport.Conn) {
			if !c.lock(epoch) {
				return
			}
			defer c.mu.Unlock()
			c.router.Remove(conn)
			id := conn.RemotePeer()
			c.store.Peers.Remove(id)
			c.log.Info("player left", "peer", id)

			if data, err := protocol.Encode(protocol.NewLeave(id)); err == nil {
				c.router.Broadcast(data, false)
			}
		},
		OnError: func(err error) {
			if !c.lock(epoch) {
				return
			}
			pending := c.state == StateHostingWaitOpen
			c.mu.Unlock()

			if pending {
				c.fail(epoch, WrapError("start host", ErrTransportOpen, err.Error()))
				return
			}
			c.log.Warn("transport error", "error", err)
		},
	}
}

func (c *Coordinator) clientEvents(epoch uint64) transport.Events {
	return transport.Events{
		OnPeerOpen: func(id string) {
			if !c.lock(epoch) {
				return
			}
			if c.state != StateClientConnecting {
				c.mu.Unlock()
				return
			}
			c.localID = id
			tr, addr := c.tr, c.ns.ToAddress(c.code)
			c.mu.Unlock()

			c.log.Debug("identity assigned, dialing host", "id", id, "address", addr)
			conn, err := tr.ConnectTo(addr)
			if err != nil {
				c.fail(epoch, WrapError("join room", ErrTransportConnect, err.Error()))
				return
			}

			if !c.lock(epoch) {
				return
			}
			defer c.mu.Unlock()
			c.upstream = conn
			// The channel may have opened before we recorded it.
			if conn.Open() && c.state == StateClientConnecting {
				c.connected()
			}
		},
		OnOpen: func(conn transport.Conn) {
			if !c.lock(epoch) {
				return
			}
			defer c.mu.Unlock()
			if c.state != StateClientConnecting || !c.isUpstream(conn) {
				return
			}
			c.connected()
		},
		OnData: func(conn transport.Conn, data []byte) {
			if !c.lock(epoch) {
				return
			}
			defer c.mu.Unlock()
			c.receive(conn, data)
		},
		OnClose: func(conn transport.Conn) {
			if !c.lock(epoch) {
				return
			}
			if !c.isUpstream(conn) {
				c.mu.Unlock()
				return
			}

			switch c.state {
			case StateConnected:
				code := c.code
				c.store.Discard()
				c.upstream = nil
				c.setState(StateDisconnected, NewError("host connection", ErrPeerDisconnected))
				c.mu.Unlock()
				c.log.Warn("host disconnected", "code", code)
			case StateClientConnecting:
				c.mu.Unlock()
				c.fail(epoch, NewError("join room", ErrTransportConnect))
			default:
				c.mu.Unlock()
			}
		},
		OnError: func(err error) {
			if !c.lock(epoch) {
				return
			}
			pending := c.state == StateClientConnecting
			opened := c.localID != ""
			c.mu.Unlock()

			if !pending {
				c.log.Warn("transport error", "error", err)
				return
			}
			kind := ErrTransportOpen
			if opened || errors.Is(err, transport.ErrPeerUnavailable) {
				kind = ErrTransportConnect
			}
			c.fail(epoch, WrapError("join room", kind, err.Error()))
		},
	}
}

// connected completes the client handshake. Caller holds mu.
func (c *Coordinator) connected() {
	c.disarm()
	c.store.Local.Reset()
	c.setState(StateConnected, nil)
	c.log.Info("joined room", "code", c.code, "id", c.localID)
}

func (c *Coordinator) isUpstream(conn transport.Conn) bool {
	return c.upstream != nil && c.upstream.ID() == conn.ID()
}

// receive decodes and applies one inbound message. Malformed input is dropped
// and reported as false. Caller holds mu.
func (c *Coordinator) receive(conn transport.Conn, data []byte) (protocol.Message, bool) {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.log.Debug("dropping message", "peer", conn.RemotePeer(), "error", err)
		return msg, false
	}
	c.apply(msg)
	return msg, true
}

func (c *Coordinator) apply(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeMove:
		if msg.ID == c.localID {
			return
		}
		if created, _ := c.store.Peers.ApplyMove(msg.ID, msg.Seq, msg.Transform()); created {
			c.log.Debug("remote player appeared", "id", msg.ID)
		}
	case protocol.TypeHit:
		if msg.Target == c.localID {
			c.store.Local.TakeDamage(msg.Damage)
			c.log.Debug("hit received", "from", msg.ID, "damage", msg.Damage)
			return
		}
		c.store.Peers.ApplyHit(msg.Target, msg.Damage)
	case protocol.TypeLeave:
		if msg.ID != c.localID {
			c.store.Peers.Remove(msg.ID)
		}
	}
}

func closeTransport(tr transport.Transport, log *slog.Logger) {
	if tr == nil {
		return
	}
	if err := tr.Close(); err != nil {
		log.Debug("close transport", "error", err)
	}
}
