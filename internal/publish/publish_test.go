package publish_test

import (
	"errors"
	"testing"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/BioHazard786/eggcombat/internal/protocol"
	"github.com/BioHazard786/eggcombat/internal/publish"
	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	state session.State
	err   error
	sent  []protocol.Message
}

func (s *fakeSink) State() session.State { return s.state }

func (s *fakeSink) Publish(msg protocol.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestTick_Gating(t *testing.T) {
	tests := []struct {
		name        string
		state       session.State
		multiplayer bool
		wantSent    bool
	}{
		{name: "connected multiplayer", state: session.StateConnected, multiplayer: true, wantSent: true},
		{name: "single player", state: session.StateConnected, multiplayer: false},
		{name: "idle", state: session.StateIdle, multiplayer: true},
		{name: "connecting", state: session.StateClientConnecting, multiplayer: true},
		{name: "disconnected", state: session.StateDisconnected, multiplayer: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{state: tt.state}
			p := publish.New(game.NewPlayer(), sink, nil)
			p.SetMultiplayer(tt.multiplayer)

			sent, err := p.Tick()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSent, sent)
			assert.Equal(t, tt.wantSent, len(sink.sent) == 1)
		})
	}
}

func TestTick_EmitsTransformWithIncreasingSeq(t *testing.T) {
	player := game.NewPlayer()
	sink := &fakeSink{state: session.StateConnected}
	p := publish.New(player, sink, nil)

	for i := range 3 {
		player.SetTransform(game.Transform{
			Position: game.Vec3{float64(i), 1, 2},
			Rotation: game.Vec3{0, 0.5, 0},
		})
		_, err := p.Tick()
		require.NoError(t, err)
	}

	require.Len(t, sink.sent, 3)
	for i, msg := range sink.sent {
		assert.Equal(t, protocol.TypeMove, msg.Type)
		assert.Equal(t, uint64(i+1), msg.Seq)
		assert.Equal(t, game.Vec3{float64(i), 1, 2}, msg.Transform().Position)
	}
	assert.Equal(t, uint64(3), p.Seq())
}

func TestTick_Errors(t *testing.T) {
	sink := &fakeSink{state: session.StateConnected, err: session.NewError("publish", session.ErrNotConnected)}
	p := publish.New(game.NewPlayer(), sink, nil)

	sent, err := p.Tick()
	assert.NoError(t, err)
	assert.False(t, sent)

	boom := errors.New("boom")
	sink.err = boom
	_, err = p.Tick()
	assert.ErrorIs(t, err, boom)
}
