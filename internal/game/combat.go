package game

import "math"

// Forward is the unit vector a player with the given yaw faces. Yaw 0 looks down -Z.
func Forward(yaw float64) Vec3 {
	return Vec3{-math.Sin(yaw), 0, -math.Cos(yaw)}
}

// Right is the unit strafe vector for yaw.
func Right(yaw float64) Vec3 {
	return Vec3{math.Cos(yaw), 0, -math.Sin(yaw)}
}

// Step moves t by forward/strafe distances and turns it by dYaw, staying inside the arena.
func Step(t Transform, forward, strafe, dYaw float64) Transform {
	yaw := WrapAngle(t.Rotation.Yaw() + dYaw)
	pos := t.Position.
		Add(Forward(yaw).Scale(forward)).
		Add(Right(yaw).Scale(strafe))

	t.Position = ClampToArena(pos)
	t.Rotation = Vec3{t.Rotation[0], yaw, t.Rotation[2]}
	return t
}

// Target is something a shot can hit.
type Target struct {
	ID       string
	Position Vec3
}

// Aim casts a shot from origin along yaw in the horizontal plane and returns the
// nearest target within HitRadius of the ray, up to ShotRange.
func Aim(origin Vec3, yaw float64, targets []Target) (string, bool) {
	dir := Forward(yaw)
	best, bestDist := "", math.Inf(1)

	for _, t := range targets {
		d := t.Position.Sub(origin)
		d[1] = 0
		along := d.Dot(dir)
		if along <= 0 || along > ShotRange {
			continue
		}
		if d.Sub(dir.Scale(along)).Len() > HitRadius {
			continue
		}
		if along < bestDist {
			best, bestDist = t.ID, along
		}
	}
	return best, best != ""
}
