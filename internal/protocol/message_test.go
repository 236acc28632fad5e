package protocol_test

import (
	"math"
	"testing"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/BioHazard786/eggcombat/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := msgpack.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDecode_Move(t *testing.T) {
	in := protocol.NewMove("peer-a", 7, game.Transform{
		Position: game.Vec3{1, 2, 3},
		Rotation: game.Vec3{0, 1.5, 0},
	})
	data, err := protocol.Encode(in)
	require.NoError(t, err)

	out, err := protocol.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeMove, out.Type)
	assert.Equal(t, "peer-a", out.ID)
	assert.Equal(t, uint64(7), out.Seq)
	assert.Equal(t, game.Vec3{1, 2, 3}, out.Transform().Position)
	assert.InDelta(t, 1.5, out.Transform().Rotation.Yaw(), 1e-9)
}

// The wire schema uses plain maps on other clients; decoding must not depend on struct order.
func TestDecode_MapShapedMove(t *testing.T) {
	data := mustMarshal(t, map[string]any{
		"type": "move",
		"id":   "host",
		"pos":  []float64{4, 5, 6},
		"rot":  []float64{0.1, 0.2, 0.3},
	})

	out, err := protocol.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, game.Vec3{4, 5, 6}, out.Transform().Position)
	assert.Equal(t, uint64(0), out.Seq)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte{0xc1, 0x00, 0x13}},
		{name: "unknown type", data: mustMarshal(t, map[string]any{"type": "unknown"})},
		{name: "missing type", data: mustMarshal(t, map[string]any{"id": "x"})},
		{name: "move without id", data: mustMarshal(t, map[string]any{
			"type": "move", "pos": []float64{0, 0, 0}, "rot": []float64{0, 0, 0},
		})},
		{name: "move short pos", data: mustMarshal(t, map[string]any{
			"type": "move", "id": "a", "pos": []float64{0, 0}, "rot": []float64{0, 0, 0},
		})},
		{name: "move missing rot", data: mustMarshal(t, map[string]any{
			"type": "move", "id": "a", "pos": []float64{0, 0, 0},
		})},
		{name: "move NaN", data: mustMarshal(t, map[string]any{
			"type": "move", "id": "a", "pos": []float64{math.NaN(), 0, 0}, "rot": []float64{0, 0, 0},
		})},
		{name: "move pos wrong kind", data: mustMarshal(t, map[string]any{
			"type": "move", "id": "a", "pos": "nowhere", "rot": []float64{0, 0, 0},
		})},
		{name: "hit without target", data: mustMarshal(t, map[string]any{
			"type": "hit", "id": "a", "damage": 35,
		})},
		{name: "hit zero damage", data: mustMarshal(t, map[string]any{
			"type": "hit", "id": "a", "target": "b",
		})},
		{name: "leave without id", data: mustMarshal(t, map[string]any{"type": "leave"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.Decode(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, protocol.ErrMalformed)
		})
	}
}

func TestDecode_UnknownTypeIsDistinguishable(t *testing.T) {
	_, err := protocol.Decode(mustMarshal(t, map[string]any{"type": "unknown", "id": "a"}))
	assert.ErrorIs(t, err, protocol.ErrUnknownType)
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestDecode_HitAndLeave(t *testing.T) {
	data, err := protocol.Encode(protocol.NewHit("a", "b", game.HitDamage))
	require.NoError(t, err)
	hit, err := protocol.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "b", hit.Target)
	assert.Equal(t, game.HitDamage, hit.Damage)

	data, err = protocol.Encode(protocol.NewLeave("c"))
	require.NoError(t, err)
	leave, err := protocol.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeLeave, leave.Type)
	assert.Equal(t, "c", leave.ID)
}
