// Package protocol defines the messages exchanged over game data channels.
package protocol

import (
	"errors"
	"fmt"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/vmihailenco/msgpack/v5"
)

// Message type constants.
const (
	TypeMove  = "move"
	TypeHit   = "hit"
	TypeLeave = "leave"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = fmt.Errorf("%w: unknown type", ErrMalformed)
)

// Message is the single envelope for every data channel message.
// Fields not used by a type are omitted on the wire.
type Message struct {
	Type string `msgpack:"type"`
	ID   string `msgpack:"id"`

	// move
	Pos []float64 `msgpack:"pos,omitempty"`
	Rot []float64 `msgpack:"rot,omitempty"`
	Seq uint64    `msgpack:"seq,omitempty"`

	// hit
	Target string `msgpack:"target,omitempty"`
	Damage int    `msgpack:"damage,omitempty"`
}

// NewMove builds a move message for a local transform sample.
func NewMove(id string, seq uint64, t game.Transform) Message {
	return Message{
		Type: TypeMove,
		ID:   id,
		Pos:  t.Position.ToSlice(),
		Rot:  t.Rotation.ToSlice(),
		Seq:  seq,
	}
}

// NewHit builds an advisory hit notification from shooter to target.
func NewHit(shooter, target string, damage int) Message {
	return Message{Type: TypeHit, ID: shooter, Target: target, Damage: damage}
}

// NewLeave tells clients that peer id is gone.
func NewLeave(id string) Message {
	return Message{Type: TypeLeave, ID: id}
}

// Transform returns the position/rotation carried by a move.
// Only valid on messages accepted by Decode.
func (m Message) Transform() game.Transform {
	pos, _ := game.Vec3FromSlice(m.Pos)
	rot, _ := game.Vec3FromSlice(m.Rot)
	return game.Transform{Position: pos, Rotation: rot}
}

// Encode serialises m with msgpack.
func Encode(m Message) ([]byte, error) {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", m.Type, err)
	}
	return data, nil
}

// Decode parses and validates a data channel payload. Every error wraps ErrMalformed.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, fmt.Errorf("%w: empty payload", ErrMalformed)
	}

	var m Message
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Validate checks the fields required by m.Type.
func (m Message) Validate() error {
	if m.ID == "" && m.Type != "" {
		return fmt.Errorf("%w: %s without id", ErrMalformed, m.Type)
	}

	switch m.Type {
	case TypeMove:
		pos, ok := game.Vec3FromSlice(m.Pos)
		if !ok || !pos.IsFinite() {
			return fmt.Errorf("%w: move pos must be 3 finite numbers", ErrMalformed)
		}
		rot, ok := game.Vec3FromSlice(m.Rot)
		if !ok || !rot.IsFinite() {
			return fmt.Errorf("%w: move rot must be 3 finite numbers", ErrMalformed)
		}
	case TypeHit:
		if m.Target == "" || m.Damage <= 0 {
			return fmt.Errorf("%w: hit needs target and positive damage", ErrMalformed)
		}
	case TypeLeave:
	default:
		return fmt.Errorf("%w %q", ErrUnknownType, m.Type)
	}
	return nil
}
