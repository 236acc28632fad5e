package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/BioHazard786/eggcombat/internal/protocol"
	"github.com/BioHazard786/eggcombat/internal/reconcile"
	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/BioHazard786/eggcombat/internal/transport/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A host walks from x=0 to x=10 over one second; the client renders the walk.
func TestHostToClientConverges(t *testing.T) {
	const (
		waitFor = 2 * time.Second
		tick    = 5 * time.Millisecond
		frame   = 100 * time.Millisecond
	)

	n := memory.NewNetwork()
	host := session.NewCoordinator(session.NewStore(), n.Factory(),
		session.WithCodeGenerator(func() roomcode.Code { return "B7XQ" }))
	require.NoError(t, host.StartHost(context.Background()))
	t.Cleanup(host.Leave)
	require.Eventually(t, func() bool { return host.State() == session.StateConnected }, waitFor, tick)
	assert.Equal(t, roomcode.Code("B7XQ"), host.RoomCode())

	client := session.NewCoordinator(session.NewStore(), n.Factory())
	require.NoError(t, client.JoinRoom(context.Background(), "B7XQ"))
	t.Cleanup(client.Leave)
	require.Eventually(t, func() bool { return client.State() == session.StateConnected }, waitFor, tick)
	require.Eventually(t, func() bool { return host.Connections() == 1 }, waitFor, tick)

	peers := client.Store().Peers
	hostID := host.LocalID()
	r := reconcile.New(peers, reconcile.DefaultRate)

	send := func(seq uint64, x float64) {
		t.Helper()
		msg := protocol.NewMove("", seq, game.Transform{Position: game.Vec3{x, 1, 0}})
		require.NoError(t, host.Publish(msg))
		require.Eventually(t, func() bool {
			rec, ok := peers.Get(hostID)
			return ok && rec.LastSeq == seq
		}, waitFor, tick)
	}

	send(1, 0)
	got := r.Step(0)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Position[0])

	for i := 1; i <= 10; i++ {
		send(uint64(i+1), float64(i))
		got = r.Step(frame)
	}

	x := got[0].Position[0]
	assert.Greater(t, x, 0.0)
	assert.Less(t, x, 10.0)

	for range 50 {
		got = r.Step(frame)
	}
	assert.InDelta(t, 10, got[0].Position[0], 1e-3)

	// Once the host is gone the remote egg disappears on the next frame.
	host.Leave()
	require.Eventually(t, func() bool { return client.State() == session.StateDisconnected }, waitFor, tick)
	assert.Empty(t, r.Step(frame))
}
