package session

import (
	"slices"
	"strings"
	"sync"

	"github.com/BioHazard786/eggcombat/internal/game"
)

// RemotePlayer is the last authoritative sample received for a remote peer.
type RemotePlayer struct {
	ID       string
	Position game.Vec3
	Rotation game.Vec3
	Health   int
	IsDead   bool

	// LastSeq is the highest sequenced move applied; zero if none.
	LastSeq uint64
}

// PeerTable holds one record per remote identity. Only the coordinator writes it.
type PeerTable struct {
	mu      sync.RWMutex
	records map[string]*RemotePlayer
}

func NewPeerTable() *PeerTable {
	return &PeerTable{records: make(map[string]*RemotePlayer)}
}

// ApplyMove stores a move sample, creating the record on first sight.
// A sequenced sample not newer than the last applied one is dropped.
func (t *PeerTable) ApplyMove(id string, seq uint64, tr game.Transform) (created, applied bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		rec = &RemotePlayer{
			ID:       id,
			Position: game.DefaultSpawn,
			Health:   game.MaxHealth,
		}
		t.records[id] = rec
		created = true
	}

	if seq != 0 && seq <= rec.LastSeq {
		return created, false
	}
	if seq != 0 {
		rec.LastSeq = seq
	}
	rec.Position = tr.Position
	rec.Rotation = tr.Rotation
	return created, true
}

// ApplyHit lowers a record's health. It reports false for unknown ids.
func (t *PeerTable) ApplyHit(id string, damage int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok || damage <= 0 {
		return false
	}
	rec.Health = max(0, rec.Health-damage)
	rec.IsDead = rec.Health == 0
	return true
}

func (t *PeerTable) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[id]
	delete(t.records, id)
	return ok
}

func (t *PeerTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.records)
}

func (t *PeerTable) Get(id string) (RemotePlayer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[id]
	if !ok {
		return RemotePlayer{}, false
	}
	return *rec, true
}

func (t *PeerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Snapshot copies every record, ordered by id.
func (t *PeerTable) Snapshot() []RemotePlayer {
	t.mu.RLock()
	out := make([]RemotePlayer, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b RemotePlayer) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Store is the per-session state shared by the coordinator, the reconciler and the view.
type Store struct {
	Peers *PeerTable
	Local *game.Player
}

func NewStore() *Store {
	return &Store{
		Peers: NewPeerTable(),
		Local: game.NewPlayer(),
	}
}

// Discard drops every remote record and returns the local player to the menu.
func (s *Store) Discard() {
	s.Peers.Reset()
	s.Local.SetStatus(game.StatusMenu)
}
