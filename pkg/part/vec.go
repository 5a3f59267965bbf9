package part

import "math"

// Vec3 is a 3D vector, used for both template-local and world coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// LengthSq returns the squared length of v. Preferred over Length when
// only comparisons are needed, as in the snap gating test.
func (v Vec3) LengthSq() float64 {
	return v.Dot(v)
}

// Length returns the length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// Normalized returns v scaled to unit length. The zero vector is
// returned unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Transform places a template into world space. Orientation is always held
// at identity: snapping is translational only, so a transform reduces to the
// world position of the template's local origin.
type Transform struct {
	Origin Vec3 `json:"origin"`
}

// Apply maps a template-local position to world space.
func (t Transform) Apply(local Vec3) Vec3 {
	return t.Origin.Add(local)
}
