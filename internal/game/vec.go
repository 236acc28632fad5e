package game

import "math"

// Vec3 is a position or Euler rotation in arena space (x, y, z).
type Vec3 [3]float64

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v * s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Len returns the euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Distance returns the euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Yaw returns the Y (vertical axis) component of an Euler rotation.
func (v Vec3) Yaw() float64 {
	return v[1]
}

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ToSlice returns v as a 3-element slice (wire representation).
func (v Vec3) ToSlice() []float64 {
	return []float64{v[0], v[1], v[2]}
}

// Vec3FromSlice converts a wire slice into a Vec3. ok is false unless s has exactly 3 elements.
func Vec3FromSlice(s []float64) (v Vec3, ok bool) {
	if len(s) != 3 {
		return Vec3{}, false
	}
	return Vec3{s[0], s[1], s[2]}, true
}

// WrapAngle normalises an angle in radians to (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}
