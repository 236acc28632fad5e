// Package rtc implements transport.Transport with WebRTC data channels,
// using the websocket signaling service to claim identities and exchange SDP.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BioHazard786/eggcombat/internal/config"
	"github.com/BioHazard786/eggcombat/internal/dns"
	"github.com/BioHazard786/eggcombat/internal/signaling"
	"github.com/BioHazard786/eggcombat/internal/transport"
	"github.com/google/uuid"
	pion "github.com/pion/webrtc/v4"
)

// Options configures the WebRTC transport.
type Options struct {
	SignalingURL string
	ICE          pion.Configuration
	Resolver     *dns.Resolver
	Logger       *slog.Logger
}

// OptionsFromConfig derives transport options from the loaded config.
func OptionsFromConfig(cfg *config.Config, log *slog.Logger) Options {
	return Options{
		SignalingURL: cfg.SignalingURL,
		ICE:          ICEConfiguration(cfg),
		Logger:       log,
	}
}

// Factory returns a transport.Factory producing fresh WebRTC peers.
func Factory(opts Options) transport.Factory {
	return func() transport.Transport { return New(opts) }
}

// Transport is one peer identity on the signaling service plus its data channels.
type Transport struct {
	opts Options
	api  *pion.API
	log  *slog.Logger

	mu      sync.Mutex
	client  *signaling.Client
	handler *signaling.Handler
	ev      transport.Events
	id      string
	conns   map[string]*Conn
	early   map[string][]pion.ICECandidateInit
	closed  bool
	done    chan struct{}
}

var _ transport.Transport = (*Transport)(nil)

func New(opts Options) *Transport {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Transport{
		opts:  opts,
		api:   pion.NewAPI(),
		log:   log.With("component", "rtc"),
		conns: make(map[string]*Conn),
		early: make(map[string][]pion.ICECandidateInit),
		done:  make(chan struct{}),
	}
}

// Open connects to the signaling server and claims id (or an assigned one).
func (t *Transport) Open(ctx context.Context, id string, ev transport.Events) error {
	t.mu.Lock()
	if t.closed || t.client != nil {
		t.mu.Unlock()
		return transport.ErrNotOpen
	}
	t.ev = ev
	t.mu.Unlock()

	client := signaling.NewClient(t.opts.SignalingURL, t.opts.Resolver)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrSignalingLost, err)
	}
	handler := signaling.NewHandler(client, t.log)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		client.Close()
		return transport.ErrNotOpen
	}
	t.client, t.handler = client, handler
	t.mu.Unlock()

	go handler.Start()
	go t.loop()

	if err := client.SendMessage(&signaling.Message{Type: signaling.MessageTypeOpen, Src: id}); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrSignalingLost, err)
	}
	return nil
}

// loop serialises everything arriving from the signaling server.
func (t *Transport) loop() {
	for {
		select {
		case <-t.done:
			return

		case id := <-t.handler.Opened:
			t.mu.Lock()
			t.id = id
			t.mu.Unlock()
			t.log.Debug("identity open", "id", id)
			t.ev.PeerOpen(id)

		case msg := <-t.handler.Signal:
			if err := t.handleSignal(msg); err != nil {
				t.log.Warn("signal failed", "src", msg.Src, "connection", msg.ConnectionID, "error", err)
			}

		case err := <-t.handler.Errors:
			t.handleServerError(err)

		case <-t.handler.Lost:
			if !t.isClosed() {
				t.ev.Error(transport.ErrSignalingLost)
			}
			return
		}
	}
}

func (t *Transport) handleServerError(err error) {
	var se *signaling.ServerError
	if !errors.As(err, &se) {
		t.ev.Error(err)
		return
	}

	switch se.Code {
	case signaling.CodeUnavailableID:
		t.ev.Error(fmt.Errorf("%w: %s", transport.ErrAddressTaken, se.Message))
	case signaling.CodePeerUnavailable:
		if c := t.lookup(se.ConnectionID); c != nil {
			c.shutdown(false)
		}
		t.ev.Error(fmt.Errorf("%w: %s", transport.ErrPeerUnavailable, se.Dst))
	default:
		t.ev.Error(se)
	}
}

// ConnectTo dials remote with a fresh peer connection and sends the offer.
func (t *Transport) ConnectTo(remote string) (transport.Conn, error) {
	t.mu.Lock()
	if t.closed || t.id == "" {
		t.mu.Unlock()
		return nil, transport.ErrNotOpen
	}
	t.mu.Unlock()

	pc, err := newPeerConnection(t.api, t.opts.ICE)
	if err != nil {
		return nil, err
	}
	c := t.newConn(uuid.NewString(), remote, pc)

	dc, err := createDataChannel(pc)
	if err != nil {
		c.shutdown(false)
		return nil, err
	}
	c.attach(dc)

	offer, err := createOffer(pc)
	if err != nil {
		c.shutdown(false)
		return nil, err
	}
	if err := t.signal(c, sdpSignal(offer)); err != nil {
		c.shutdown(false)
		return nil, err
	}

	t.log.Debug("offer sent", "remote", remote, "connection", c.id)
	return c, nil
}

func (t *Transport) handleSignal(msg *signaling.Message) error {
	payload, err := signaling.DecodeSignal(msg)
	if err != nil {
		return err
	}

	c := t.lookup(msg.ConnectionID)

	switch payload.Kind {
	case signaling.SignalOffer:
		if c != nil {
			return fmt.Errorf("duplicate offer for %s", msg.ConnectionID)
		}
		return t.accept(msg, payload)

	case signaling.SignalAnswer:
		if c == nil {
			return fmt.Errorf("answer for unknown connection %s", msg.ConnectionID)
		}
		desc := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: payload.SDP}
		if err := c.pc.SetRemoteDescription(desc); err != nil {
			return fmt.Errorf("set remote description: %w", err)
		}
		return c.remoteDescribed()

	case signaling.SignalCandidate:
		ice, err := parseCandidate(payload.Candidate)
		if err != nil {
			return err
		}
		if c == nil {
			// Trickled ahead of its offer.
			t.mu.Lock()
			t.early[msg.ConnectionID] = append(t.early[msg.ConnectionID], ice)
			t.mu.Unlock()
			return nil
		}
		return c.addCandidate(ice)

	default:
		return fmt.Errorf("unexpected signal kind %q", payload.Kind)
	}
}

// accept answers an inbound offer. The data channel arrives via OnDataChannel.
func (t *Transport) accept(msg *signaling.Message, payload *signaling.SignalPayload) error {
	pc, err := newPeerConnection(t.api, t.opts.ICE)
	if err != nil {
		return err
	}

	c := t.newConn(msg.ConnectionID, msg.Src, pc)
	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() != ChannelLabel {
			t.log.Debug("ignoring data channel", "label", dc.Label())
			return
		}
		c.attach(dc)
	})
	t.ev.Connection(c)

	answer, err := createAnswer(pc, payload.SDP)
	if err != nil {
		c.shutdown(false)
		return err
	}
	if err := c.remoteDescribed(); err != nil {
		t.log.Debug("early candidates rejected", "error", err)
	}
	return t.signal(c, sdpSignal(answer))
}

func (t *Transport) newConn(id, remote string, pc *pion.PeerConnection) *Conn {
	c := &Conn{id: id, remote: remote, pc: pc, t: t}

	t.mu.Lock()
	c.pending = t.early[id]
	delete(t.early, id)
	t.conns[id] = c
	t.mu.Unlock()

	pc.OnICECandidate(func(ice *pion.ICECandidate) {
		if ice == nil {
			return
		}
		payload, err := candidateSignal(ice)
		if err != nil {
			t.log.Debug("candidate dropped", "error", err)
			return
		}
		if err := t.signal(c, payload); err != nil {
			t.log.Debug("candidate not sent", "error", err)
		}
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		t.log.Debug("peer connection state", "remote", remote, "state", state.String())
		if state == pion.PeerConnectionStateFailed || state == pion.PeerConnectionStateClosed {
			// Closing from inside a pion callback must not block it.
			go c.shutdown(true)
		}
	})
	return c
}

func (t *Transport) signal(c *Conn, payload signaling.SignalPayload) error {
	msg, err := signaling.NewSignal(c.remote, c.id, payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return transport.ErrNotOpen
	}
	return client.SendMessage(msg)
}

func (t *Transport) lookup(id string) *Conn {
	if id == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[id]
}

func (t *Transport) forget(c *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conns[c.id] == c {
		delete(t.conns, c.id)
	}
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close leaves the signaling service and closes every data channel.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	client := t.client
	conns := make([]*Conn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	if client != nil {
		client.Close()
	}
	for _, c := range conns {
		c.shutdown(true)
	}
	return nil
}
