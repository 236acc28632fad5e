// Package reconcile turns discrete remote samples into smoothly moving display state.
package reconcile

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/BioHazard786/eggcombat/internal/session"
)

// DefaultRate is the smoothing rate k in 1/s.
const DefaultRate = 10.0

// Source supplies the latest authoritative records. The reconciler never writes them.
type Source interface {
	Snapshot() []session.RemotePlayer
}

// Display is what the render layer draws for one remote player.
type Display struct {
	ID       string
	Position game.Vec3
	Yaw      float64

	// Discrete fields are copied, never interpolated.
	Health int
	IsDead bool
}

// Reconciler keeps one display state per remote identity.
type Reconciler struct {
	src  Source
	rate float64

	mu      sync.Mutex
	display map[string]*Display
}

func New(src Source, rate float64) *Reconciler {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Reconciler{
		src:     src,
		rate:    rate,
		display: make(map[string]*Display),
	}
}

// Alpha is the fraction of the remaining distance covered in dt: 1 - e^(-k·dt).
func Alpha(rate float64, dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*dt.Seconds())
}

// Smooth moves p toward target by alpha.
func Smooth(p, target game.Vec3, alpha float64) game.Vec3 {
	return p.Add(target.Sub(p).Scale(alpha))
}

// SmoothYaw moves yaw toward target along the shorter arc.
func SmoothYaw(yaw, target, alpha float64) float64 {
	return game.WrapAngle(yaw + game.WrapAngle(target-yaw)*alpha)
}

// Step advances every display state by dt and returns them ordered by id.
// Identities seen for the first time snap to their sample; identities whose
// record is gone are dropped in the same step.
func (r *Reconciler) Step(dt time.Duration) []Display {
	records := r.src.Snapshot()
	alpha := Alpha(r.rate, dt)

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.ID] = struct{}{}

		d, ok := r.display[rec.ID]
		if !ok {
			r.display[rec.ID] = &Display{
				ID:       rec.ID,
				Position: rec.Position,
				Yaw:      game.WrapAngle(rec.Rotation.Yaw()),
				Health:   rec.Health,
				IsDead:   rec.IsDead,
			}
			continue
		}
		d.Position = Smooth(d.Position, rec.Position, alpha)
		d.Yaw = SmoothYaw(d.Yaw, rec.Rotation.Yaw(), alpha)
		d.Health = rec.Health
		d.IsDead = rec.IsDead
	}

	for id := range r.display {
		if _, ok := seen[id]; !ok {
			delete(r.display, id)
		}
	}
	return r.snapshot()
}

// Displayed returns the current display states without advancing them.
func (r *Reconciler) Displayed() []Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Reconciler) snapshot() []Display {
	out := make([]Display, 0, len(r.display))
	for _, d := range r.display {
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b Display) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
