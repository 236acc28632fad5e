package session_test

import (
	"sync"
	"testing"

	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/BioHazard786/eggcombat/internal/transport"
	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	id        string
	open      bool
	closed    bool
	congested bool

	mu   sync.Mutex
	sent [][]byte
}

func (c *fakeConn) ID() string         { return c.id }
func (c *fakeConn) RemotePeer() string { return "peer-" + c.id }
func (c *fakeConn) Open() bool         { return c.open }
func (c *fakeConn) Close() error       { return nil }
func (c *fakeConn) Congested() bool    { return c.congested }

func (c *fakeConn) Send(data []byte) error {
	if c.closed {
		return transport.ErrConnClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestRouter_ForwardSkipsSender(t *testing.T) {
	a := &fakeConn{id: "a", open: true}
	b := &fakeConn{id: "b", open: true}
	c := &fakeConn{id: "c", open: true}

	r := session.NewRouter(nil)
	for _, conn := range []*fakeConn{a, b, c} {
		r.Add(conn)
	}

	payload := []byte("move")
	assert.Equal(t, 2, r.Forward(a, payload, false))
	assert.Equal(t, 0, a.count())
	assert.Equal(t, [][]byte{payload}, b.sent)
	assert.Equal(t, [][]byte{payload}, c.sent)
}

func TestRouter_SkipsClosedConnections(t *testing.T) {
	tests := []struct {
		name  string
		conns []*fakeConn
		want  int
	}{
		{
			name:  "not open is skipped",
			conns: []*fakeConn{{id: "b", open: false}, {id: "c", open: true}},
			want:  1,
		},
		{
			name:  "closing channel is a no-op",
			conns: []*fakeConn{{id: "b", open: true, closed: true}, {id: "c", open: true}},
			want:  1,
		},
		{
			name:  "no peers",
			conns: nil,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := session.NewRouter(nil)
			from := &fakeConn{id: "a", open: true}
			r.Add(from)
			for _, conn := range tt.conns {
				r.Add(conn)
			}
			assert.Equal(t, tt.want, r.Forward(from, []byte("x"), false))
		})
	}
}

func TestRouter_BroadcastAndRemove(t *testing.T) {
	a := &fakeConn{id: "a", open: true}
	b := &fakeConn{id: "b", open: true}

	r := session.NewRouter(nil)
	r.Add(a)
	r.Add(b)
	assert.Equal(t, 2, r.Broadcast([]byte("leave"), false))

	r.Remove(a)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.Broadcast([]byte("leave"), false))
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 2, b.count())
}

func TestRouter_CongestionShedsOnlyLossyData(t *testing.T) {
	fast := &fakeConn{id: "fast", open: true}
	slow := &fakeConn{id: "slow", open: true, congested: true}

	r := session.NewRouter(nil)
	r.Add(fast)
	r.Add(slow)

	assert.Equal(t, 1, r.Broadcast([]byte("move"), true))
	assert.Equal(t, 0, slow.count())

	assert.Equal(t, 2, r.Broadcast([]byte("leave"), false))
	assert.Equal(t, [][]byte{[]byte("leave")}, slow.sent)
	assert.Equal(t, 2, fast.count())
}
