package part

// ---------------------------------------------------------------------------
// Collision shape descriptors
// ---------------------------------------------------------------------------

// ShapeSpec describes a template's collision volume. Descriptors are pure
// data; the geometry backend resolves them into solids.
type ShapeSpec interface {
	shapeSpec() // marker method restricting implementations to this package

	// Bounds returns the local-space axis-aligned bounding box.
	Bounds() (min, max Vec3)
}

// BoxShape is a rectangular solid with its minimum corner at the local
// origin, so that placement translations work intuitively: a transform puts
// the box's corner at the transform origin.
type BoxShape struct {
	Dims Vec3 `json:"dims"`
}

func (BoxShape) shapeSpec() {}

// Bounds returns the box extents: origin to Dims.
func (b BoxShape) Bounds() (Vec3, Vec3) {
	return Vec3{}, b.Dims
}

// CylinderShape is a cylinder centered at the local origin with its axis
// along Z, matching the geometry backend's cylinder convention.
type CylinderShape struct {
	Diameter float64 `json:"diameter"`
	Length   float64 `json:"length"`
}

func (CylinderShape) shapeSpec() {}

// Bounds returns the cylinder's local AABB.
func (c CylinderShape) Bounds() (Vec3, Vec3) {
	r := c.Diameter / 2
	h := c.Length / 2
	return Vec3{X: -r, Y: -r, Z: -h}, Vec3{X: r, Y: r, Z: h}
}
