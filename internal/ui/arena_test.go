package ui

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/BioHazard786/eggcombat/internal/protocol"
	"github.com/BioHazard786/eggcombat/internal/reconcile"
	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/BioHazard786/eggcombat/internal/transport/memory"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	poll    = 5 * time.Millisecond
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func connect(t *testing.T, n *memory.Network) (host, client *session.Coordinator) {
	t.Helper()
	host = session.NewCoordinator(session.NewStore(), n.Factory(),
		session.WithCodeGenerator(func() roomcode.Code { return "B7XQ" }))
	require.NoError(t, host.StartHost(context.Background()))
	t.Cleanup(host.Leave)
	require.Eventually(t, func() bool { return host.State() == session.StateConnected }, waitFor, poll)

	client = session.NewCoordinator(session.NewStore(), n.Factory())
	require.NoError(t, client.JoinRoom(context.Background(), "B7XQ"))
	t.Cleanup(client.Leave)
	require.Eventually(t, func() bool { return client.State() == session.StateConnected }, waitFor, poll)
	require.Eventually(t, func() bool { return host.Connections() == 1 }, waitFor, poll)
	return host, client
}

func TestCell(t *testing.T) {
	tests := []struct {
		name string
		pos  game.Vec3
		col  int
		row  int
	}{
		{"centre", game.Vec3{0, 5, 0}, gridCols / 2, gridRows / 2},
		{"top left corner", game.Vec3{-30, 0, -30}, 0, 0},
		{"far wall clamps", game.Vec3{30, 0, 30}, gridCols - 1, gridRows - 1},
		{"outside clamps", game.Vec3{-100, 0, 100}, 0, gridRows - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, r := cell(tt.pos)
			assert.Equal(t, tt.col, c)
			assert.Equal(t, tt.row, r)
		})
	}
}

func TestFacingGlyph(t *testing.T) {
	assert.Equal(t, "▲", facingGlyph(0))
	assert.Equal(t, "◀", facingGlyph(math.Pi/2))
	assert.Equal(t, "▼", facingGlyph(math.Pi))
	assert.Equal(t, "▶", facingGlyph(-math.Pi/2))
}

func TestRenderArena(t *testing.T) {
	out := renderArena(game.Transform{Position: game.DefaultSpawn}, []reconcile.Display{
		{ID: "alive", Position: game.Vec3{10, 5, 10}, Health: 100},
		{ID: "dead", Position: game.Vec3{-10, 5, -10}, IsDead: true},
	})

	assert.Contains(t, out, "▲")
	assert.Contains(t, out, "o")
	assert.Contains(t, out, "x")
}

func TestSummaryView(t *testing.T) {
	out := SummaryView("Session", Summary{
		Role:     "HOST",
		RoomCode: "B7XQ",
		Duration: 90 * time.Second,
		Shots:    4,
		Hits:     1,
		Score:    100,
	})

	assert.Contains(t, out, "B7XQ")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "4 / 1 (25%)")

	withErr := SummaryView("Session", Summary{LastError: errors.New("host went away")})
	assert.Contains(t, withErr, "host went away")
	assert.Contains(t, withErr, "-")
}

func TestModel_MenuRejectsBadCode(t *testing.T) {
	n := memory.NewNetwork()
	coord := session.NewCoordinator(session.NewStore(), n.Factory())
	m := NewModel(context.Background(), Options{Coordinator: coord})

	m.Update(runes("j"))
	require.True(t, m.input.Focused())

	m.input.SetValue("no!")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Error(t, m.err)
	assert.Equal(t, session.StateIdle, coord.State())
	assert.Contains(t, m.View(), "Enter a room code")
}

func TestModel_Practice(t *testing.T) {
	n := memory.NewNetwork()
	coord := session.NewCoordinator(session.NewStore(), n.Factory())
	m := NewModel(context.Background(), Options{Coordinator: coord})

	m.Update(runes("p"))
	require.True(t, m.inArena())
	assert.Equal(t, game.StatusPlaying, m.player.Status())

	m.Update(runes("w"))
	assert.InDelta(t, -game.PlayerSpeed*moveStep, m.player.Transform().Position[2], 1e-9)

	// Nothing leaves the machine in practice.
	m.step(time.Now())
	assert.Zero(t, m.pub.Seq())

	m.Update(runes("q"))
	assert.False(t, m.inArena())
	assert.Equal(t, game.StatusMenu, m.player.Status())
}

func TestModel_ShootHitsRemoteEgg(t *testing.T) {
	n := memory.NewNetwork()
	host, client := connect(t, n)
	m := NewModel(context.Background(), Options{Coordinator: host})
	require.Equal(t, session.StateConnected, m.state)

	// Put the client straight ahead of the host's spawn, facing -Z.
	target := game.Transform{Position: game.Vec3{0, 5, -10}}
	require.NoError(t, client.Publish(protocol.NewMove("", 1, target)))
	clientID := client.LocalID()
	require.Eventually(t, func() bool {
		_, ok := host.Store().Peers.Get(clientID)
		return ok
	}, waitFor, poll)

	m.step(time.Now())
	require.Len(t, m.eggs, 1)
	assert.Equal(t, uint64(1), m.pub.Seq())

	m.Update(tea.KeyMsg{Type: tea.KeySpace})

	s := m.Summary()
	assert.Equal(t, 1, s.Shots)
	assert.Equal(t, 1, s.Hits)
	assert.Equal(t, game.MaxAmmo-1, m.player.Snapshot().Ammo)

	require.Eventually(t, func() bool {
		return client.Store().Local.Snapshot().Health == game.MaxHealth-game.HitDamage
	}, waitFor, poll)
	rec, ok := host.Store().Peers.Get(clientID)
	require.True(t, ok)
	assert.Equal(t, game.MaxHealth-game.HitDamage, rec.Health)
}

func TestModel_KillScores(t *testing.T) {
	n := memory.NewNetwork()
	host, client := connect(t, n)
	m := NewModel(context.Background(), Options{Coordinator: host})

	require.NoError(t, client.Publish(protocol.NewMove("", 1, game.Transform{Position: game.Vec3{0, 5, -5}})))
	clientID := client.LocalID()
	require.Eventually(t, func() bool {
		_, ok := host.Store().Peers.Get(clientID)
		return ok
	}, waitFor, poll)
	m.step(time.Now())

	// 35 damage per hit: the third hit cracks a full-health egg.
	for range 3 {
		m.Update(tea.KeyMsg{Type: tea.KeySpace})
		m.step(time.Now())
	}

	s := m.Summary()
	assert.Equal(t, 1, s.Kills)
	assert.Equal(t, game.KillScore, s.Score)
	require.Eventually(t, func() bool {
		return client.Store().Local.Status() == game.StatusGameOver
	}, waitFor, poll)

	// A dead egg is no longer a target.
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, 3, m.Summary().Hits)
}

func TestModel_UpdatesDriveView(t *testing.T) {
	n := memory.NewNetwork()
	coord := session.NewCoordinator(session.NewStore(), n.Factory())
	m := NewModel(context.Background(), Options{Coordinator: coord})

	m.Update(updateMsg(session.Update{State: session.StateClientConnecting, Role: session.RoleClient, Code: "B7XQ"}))
	assert.Contains(t, m.View(), "Connecting to the host")

	m.Update(updateMsg(session.Update{State: session.StateDisconnected, Role: session.RoleClient, Err: session.ErrPeerDisconnected}))
	assert.Contains(t, m.View(), "Disconnected")
	assert.ErrorIs(t, m.Summary().LastError, session.ErrPeerDisconnected)
}
