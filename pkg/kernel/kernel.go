// Package kernel defines the abstract geometry backend interface.
// Implementations (sdfx) provide solid construction, signed-distance
// evaluation, and tessellation behind this interface, so the physics
// narrow phase and the preview mesher share one backend that can be
// swapped without changing the rest of the system.
package kernel

// Solid is an opaque handle to a backend solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)

	// Distance returns the signed distance from p to the solid's surface:
	// negative inside, positive outside. Exact for SDF backends.
	Distance(p [3]float64) float64
}

// Kernel is the abstract geometry backend interface.
type Kernel interface {
	// Primitives. Box has its minimum corner at the origin; Cylinder is
	// centered at the origin with its axis along Z.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	// Translate moves a solid by (x, y, z). Rotation is deliberately
	// absent: placement orientation is always identity.
	Translate(s Solid, x, y, z float64) Solid

	// ToMesh converts a solid to a triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}
