package game

import "time"

// Arena and combat tuning
const (
	PlayerSpeed = 6.0  // units per second
	TurnSpeed   = 2.5  // radians per second
	MapSize     = 60.0 // arena is MapSize x MapSize, centred on the origin
	EyeHeight   = 1.0

	MaxHealth   = 100
	MaxAmmo     = 30
	HitDamage   = 35
	KillScore   = 100
	HitRadius   = 1.5 // generous hit box around an egg
	ShotRange   = 100.0
	ReloadDelay = 1500 * time.Millisecond
)

// DefaultSpawn is the fallback transform for a peer we have not yet seen a sample from.
var DefaultSpawn = Vec3{0, 5, 0}

// ClampToArena keeps a position inside the arena walls.
func ClampToArena(p Vec3) Vec3 {
	half := MapSize / 2
	for _, i := range []int{0, 2} {
		if p[i] < -half {
			p[i] = -half
		}
		if p[i] > half {
			p[i] = half
		}
	}
	return p
}
