package signaling

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
)

// validID bounds claimable identities to something safe to log and route.
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Hub is the central brain of the signaling server.
// It owns the identity registry and relays signals between peers.
type Hub struct {
	// peers maps claimed identities to their connection.
	peers map[string]*ServerConn

	// conns tracks every live websocket, opened or not.
	conns map[*ServerConn]struct{}

	// Register is a channel for registering new connections.
	Register chan *ServerConn

	// Unregister is a channel for unregistering connections.
	Unregister chan *ServerConn

	// Inbound carries every message read from any connection.
	Inbound chan *Message

	metrics *Metrics
	log     *slog.Logger
	done    chan struct{}
}

// NewHub creates a new Hub instance. metrics may be nil.
func NewHub(metrics *Metrics, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		peers:      make(map[string]*ServerConn),
		conns:      make(map[*ServerConn]struct{}),
		Register:   make(chan *ServerConn),
		Unregister: make(chan *ServerConn),
		Inbound:    make(chan *Message),
		metrics:    metrics,
		log:        log,
		done:       make(chan struct{}),
	}
}

// Attach hands a new connection to the hub. It reports false once the hub has stopped.
func (h *Hub) Attach(c *ServerConn) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Run is the single goroutine that owns all hub state. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.conns {
				h.drop(c)
			}
			return

		case c := <-h.Register:
			h.conns[c] = struct{}{}
			h.metrics.connected(1)
			h.log.Debug("connection registered", "remote", c.Conn.RemoteAddr())

		case c := <-h.Unregister:
			if _, ok := h.conns[c]; ok {
				h.log.Debug("connection unregistered", "remote", c.Conn.RemoteAddr(), "id", c.ID)
				h.drop(c)
			}

		case msg := <-h.Inbound:
			if _, ok := h.conns[msg.conn]; !ok {
				continue
			}
			h.metrics.message(msg.Type)
			h.handle(msg)
		}
	}
}

func (h *Hub) handle(msg *Message) {
	c := msg.conn

	switch msg.Type {
	case MessageTypeOpen:
		if c.ID != "" {
			h.reject(c, CodeInvalidID, "identity already open: "+c.ID)
			return
		}

		id := msg.Src
		if id == "" {
			id = uuid.NewString()
		}
		if !validID.MatchString(id) {
			h.reject(c, CodeInvalidID, "invalid identity")
			return
		}
		if _, taken := h.peers[id]; taken {
			h.log.Info("identity taken", "id", id)
			h.reject(c, CodeUnavailableID, "identity "+id+" is taken")
			return
		}

		h.peers[id] = c
		c.ID = id
		h.metrics.registered(1)
		h.log.Info("peer opened", "id", id, "remote", c.Conn.RemoteAddr())
		h.deliver(c, &Message{Type: MessageTypeOpened, Src: id})

	case MessageTypeSignal:
		if c.ID == "" {
			h.reject(c, CodeNotOpen, "open an identity before signaling")
			return
		}

		target, ok := h.peers[msg.Dst]
		if !ok {
			h.log.Debug("signal to unknown peer", "src", c.ID, "dst", msg.Dst)
			h.metrics.failed(CodePeerUnavailable)
			reply := errorMessage(CodePeerUnavailable, "could not connect to peer "+msg.Dst)
			reply.Dst = msg.Dst
			reply.ConnectionID = msg.ConnectionID
			h.deliver(c, reply)
			return
		}

		h.deliver(target, &Message{
			Type:         MessageTypeSignal,
			Src:          c.ID,
			Dst:          msg.Dst,
			ConnectionID: msg.ConnectionID,
			Payload:      msg.Payload,
		})

	default:
		h.reject(c, CodeInvalidMessage, "unknown message type "+msg.Type)
	}
}

func (h *Hub) reject(c *ServerConn, code, text string) {
	h.metrics.failed(code)
	h.deliver(c, errorMessage(code, text))
}

// deliver queues msg without blocking the hub. A peer that cannot keep up is dropped.
func (h *Hub) deliver(c *ServerConn, msg *Message) {
	if _, ok := h.conns[c]; !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
		h.log.Warn("send buffer full, dropping connection", "id", c.ID)
		h.drop(c)
	}
}

func (h *Hub) drop(c *ServerConn) {
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	h.metrics.connected(-1)

	if c.ID != "" && h.peers[c.ID] == c {
		delete(h.peers, c.ID)
		h.metrics.registered(-1)
		h.log.Info("peer closed", "id", c.ID)
	}
	close(c.Send)
}
