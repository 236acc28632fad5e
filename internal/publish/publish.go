// Package publish samples the local transform every simulation tick and sends it as a move.
package publish

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/BioHazard786/eggcombat/internal/protocol"
	"github.com/BioHazard786/eggcombat/internal/session"
)

// TransformSource is the physics layer's view of the local player.
type TransformSource interface {
	Transform() game.Transform
}

// Sink accepts outbound messages; *session.Coordinator satisfies it.
type Sink interface {
	State() session.State
	Publish(msg protocol.Message) error
}

// Publisher emits one move per tick while connected in multiplayer mode.
type Publisher struct {
	src  TransformSource
	sink Sink
	log  *slog.Logger

	multiplayer atomic.Bool
	seq         atomic.Uint64
}

func New(src TransformSource, sink Sink, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{src: src, sink: sink, log: log}
	p.multiplayer.Store(true)
	return p
}

// SetMultiplayer toggles publishing; single-player rounds never touch the network.
func (p *Publisher) SetMultiplayer(on bool) {
	p.multiplayer.Store(on)
}

// Seq is the sequence number of the last emitted move.
func (p *Publisher) Seq() uint64 {
	return p.seq.Load()
}

// Tick reads the current transform and emits it. It reports whether a move was sent.
func (p *Publisher) Tick() (bool, error) {
	if !p.multiplayer.Load() || p.sink.State() != session.StateConnected {
		return false, nil
	}

	seq := p.seq.Add(1)
	msg := protocol.NewMove("", seq, p.src.Transform())
	if err := p.sink.Publish(msg); err != nil {
		// The session may drop between the state check and the send.
		if errors.Is(err, session.ErrNotConnected) {
			return false, nil
		}
		p.log.Debug("publish move", "seq", seq, "error", err)
		return false, err
	}
	return true, nil
}
