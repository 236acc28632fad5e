package rtc

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/BioHazard786/eggcombat/internal/transport"
	pion "github.com/pion/webrtc/v4"
)

// Conn is one WebRTC data channel to a remote peer.
type Conn struct {
	id     string
	remote string
	pc     *pion.PeerConnection
	t      *Transport

	mu        sync.Mutex
	dc        *pion.DataChannel
	pending   []pion.ICECandidateInit
	described bool

	open      atomic.Bool
	closeOnce sync.Once
}

var _ transport.Conn = (*Conn)(nil)

func (c *Conn) ID() string         { return c.id }
func (c *Conn) RemotePeer() string { return c.remote }
func (c *Conn) Open() bool         { return c.open.Load() }

// Send queues data on the channel. It never waits on the network.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	dc := c.dc
	c.mu.Unlock()

	if dc == nil || !c.open.Load() || dc.ReadyState() != pion.DataChannelStateOpen {
		return transport.ErrConnClosed
	}
	if err := dc.Send(data); err != nil {
		if errors.Is(err, pion.ErrConnectionClosed) || errors.Is(err, io.ErrClosedPipe) {
			return transport.ErrConnClosed
		}
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Congested reports whether the channel has queued past highWaterMark.
func (c *Conn) Congested() bool {
	c.mu.Lock()
	dc := c.dc
	c.mu.Unlock()
	return dc != nil && dc.BufferedAmount() > highWaterMark
}

func (c *Conn) Close() error {
	c.shutdown(true)
	return nil
}

func (c *Conn) attach(dc *pion.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	c.mu.Unlock()

	ev := c.t.ev
	dc.OnOpen(func() {
		c.open.Store(true)
		ev.Opened(c)
	})
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		ev.Data(c, msg.Data)
	})
	dc.OnClose(func() {
		go c.shutdown(true)
	})
}

// remoteDescribed flushes candidates that arrived before the remote description.
func (c *Conn) remoteDescribed() error {
	c.mu.Lock()
	c.described = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	var errs []error
	for _, ice := range pending {
		if err := c.pc.AddICECandidate(ice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Conn) addCandidate(ice pion.ICECandidateInit) error {
	c.mu.Lock()
	if !c.described {
		c.pending = append(c.pending, ice)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.pc.AddICECandidate(ice); err != nil {
		return fmt.Errorf("add ICE candidate: %w", err)
	}
	return nil
}

// shutdown tears the connection down once. notify reports OnClose.
func (c *Conn) shutdown(notify bool) {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		c.t.forget(c)

		c.mu.Lock()
		dc := c.dc
		c.mu.Unlock()
		if dc != nil {
			dc.Close()
		}
		c.pc.Close()

		if notify {
			c.t.ev.Closed(c)
		}
	})
}
