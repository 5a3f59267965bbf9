// Package physics defines the query contracts between the placement core
// and the collision backend: collision layers, object handles, and the
// immutable per-call parameter structs for ray casts and overlap queries.
// Each query carries its full parameter set; there is no shared mutable
// query state to reuse between ticks.
package physics

import (
	"github.com/google/uuid"

	"github.com/chazu/tenon/pkg/part"
)

// Layer is a collision layer bitmask.
type Layer uint32

const (
	// LayerEnvironment holds static geometry (ground, walls).
	LayerEnvironment Layer = 1 << iota
	// LayerParts holds committed placed parts. Previews are never on any
	// layer; they do not collide until attached to the world.
	LayerParts
)

// ObjectRef is an opaque handle to a scene object. The zero value is NilRef.
type ObjectRef string

// NilRef is the absent object reference.
const NilRef ObjectRef = ""

// NewObjectRef mints a fresh handle.
func NewObjectRef() ObjectRef {
	return ObjectRef(uuid.NewString())
}

// RayQuery parameterizes a single ray cast.
type RayQuery struct {
	Origin  part.Vec3
	Dir     part.Vec3 // need not be normalized
	MaxDist float64
	Mask    Layer
	Exclude []ObjectRef
}

// RayHit is the result of a successful ray cast.
type RayHit struct {
	Position part.Vec3
	Normal   part.Vec3 // unit surface normal at Position
	Object   ObjectRef
}

// SphereQuery parameterizes a sphere overlap query.
type SphereQuery struct {
	Center  part.Vec3
	Radius  float64
	Mask    Layer
	Exclude []ObjectRef
}

// ShapeQuery parameterizes an overlap query using an actual collision shape
// at a candidate transform rather than a sphere.
type ShapeQuery struct {
	Shape   part.ShapeSpec
	At      part.Transform
	Mask    Layer
	Exclude []ObjectRef
}

// Caster resolves rays against the collision index.
type Caster interface {
	// CastRay returns the nearest hit along the ray, if any.
	CastRay(q RayQuery) (RayHit, bool)
}

// Overlapper answers volume overlap queries against the collision index.
type Overlapper interface {
	// OverlapSphere returns the refs whose volumes intersect the sphere.
	OverlapSphere(q SphereQuery) []ObjectRef

	// OverlapShape returns the refs whose volumes intersect the shape at
	// the given transform. Exact surface contact does not count as overlap,
	// so snapped parts may abut their neighbors.
	OverlapShape(q ShapeQuery) []ObjectRef
}

// Excluded reports whether ref appears in the exclusion set. Exclusion sets
// are tiny (preview plus at most a snap target), so a linear scan wins over
// a map.
func Excluded(exclude []ObjectRef, ref ObjectRef) bool {
	for _, e := range exclude {
		if e == ref {
			return true
		}
	}
	return false
}
